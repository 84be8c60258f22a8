package testsupport

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/kolo/xmlrpc"

	"renderfarm/internal/config"
)

// Fault strings the fake farm answers with.
const (
	FaultUnknownUser = "Failed to invoke method getSessionKey"
	FaultBadKey      = "invalid session key"
	FaultNoSession   = "no such session"
)

// FarmSession is a session held by FarmServer.
type FarmSession struct {
	ID             int64
	Owner          int64
	Title          string
	Stage          string
	FrameStart     int64
	FrameEnd       int64
	FramesRendered int64
	Submitted      bool
	Params         map[string]any
}

// FarmCall is one XML-RPC call received by FarmServer.
type FarmCall struct {
	Endpoint string
	Method   string
	Params   []any
}

// FarmUpload is one multipart upload received by FarmServer.
type FarmUpload struct {
	UserID        int64
	SessionID     int64
	MD5           string
	Payload       []byte
	PartType      string
	Boundary      string
	ContentLength int64
	BodyLength    int64
	FileID        int64
}

type farmUser struct {
	id   int64
	hash string
}

// FarmServer is an in-process farm speaking the auth, session and upload
// protocols. Every keyed call must present the key issued by the previous
// call for that user and receives a fresh one.
type FarmServer struct {
	server *httptest.Server

	mu          sync.Mutex
	users       map[string]farmUser
	keys        map[int64]string
	keySeq      int
	sessions    []*FarmSession
	nextSession int64
	nextFile    int64
	calls       []FarmCall
	uploads     []FarmUpload
	faults      map[string]xmlrpc.FaultError
	broken      map[string]int
	accepting   bool
	motd        string
}

// NewFarmServer starts a FarmServer that is closed when the test ends.
func NewFarmServer(t testing.TB) *FarmServer {
	t.Helper()

	f := &FarmServer{
		users:       make(map[string]farmUser),
		keys:        make(map[int64]string),
		nextSession: 100,
		nextFile:    500,
		faults:      make(map[string]xmlrpc.FaultError),
		broken:      make(map[string]int),
		accepting:   true,
		motd:        "ok",
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/auth", f.handleRPC("auth"))
	mux.HandleFunc("/session", f.handleRPC("session"))
	mux.HandleFunc("/file", f.handleUpload)
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

// URL is the server's base URL.
func (f *FarmServer) URL() string { return f.server.URL }

// Endpoints resolves the three farm endpoints on this server.
func (f *FarmServer) Endpoints() config.Endpoints {
	return config.Endpoints{
		Secure:  f.server.URL + "/auth",
		General: f.server.URL + "/session",
		Upload:  f.server.URL + "/file",
	}
}

// AddUser registers an account.
func (f *FarmServer) AddUser(user, hash string, id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user] = farmUser{id: id, hash: hash}
}

// AddSession stores s as-is and returns its ID, assigning one when zero.
func (f *FarmServer) AddSession(s FarmSession) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == 0 {
		f.nextSession++
		s.ID = f.nextSession
	}
	if s.Params == nil {
		s.Params = make(map[string]any)
	}
	f.sessions = append(f.sessions, &s)
	return s.ID
}

// SetStage moves a session to stage.
func (f *FarmServer) SetStage(id int64, stage string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s := f.findSession(id); s != nil {
		s.Stage = stage
	}
}

// SetStatus changes the service.motd answer.
func (f *FarmServer) SetStatus(accepting bool, motd string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepting = accepting
	f.motd = motd
}

// FailMethod makes every call of method answer with fault. The upload
// endpoint is addressed as "upload".
func (f *FarmServer) FailMethod(method string, fault xmlrpc.FaultError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[method] = fault
}

// BreakMethod makes the next n calls of method fail with HTTP 500.
func (f *FarmServer) BreakMethod(method string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broken[method] = n
}

// Heal clears every fault and breakage.
func (f *FarmServer) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.faults)
	clear(f.broken)
}

// Calls returns the calls received so far.
func (f *FarmServer) Calls() []FarmCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Methods returns the method names received so far, in order.
func (f *FarmServer) Methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Method
	}
	return out
}

// Uploads returns the uploads received so far.
func (f *FarmServer) Uploads() []FarmUpload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.uploads)
}

// Sessions returns copies of the stored sessions.
func (f *FarmServer) Sessions() []FarmSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FarmSession, len(f.sessions))
	for i, s := range f.sessions {
		out[i] = *s
		out[i].Params = make(map[string]any, len(s.Params))
		for k, v := range s.Params {
			out[i].Params[k] = v
		}
	}
	return out
}

// CurrentKey is the key the next keyed call for userID must present.
func (f *FarmServer) CurrentKey(userID int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys[userID]
}

func (f *FarmServer) handleRPC(endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		method, params, err := decodeCall(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.calls = append(f.calls, FarmCall{Endpoint: endpoint, Method: method, Params: params})
		if f.takeBroken(method) {
			f.mu.Unlock()
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		var result any
		fault, failed := f.faults[method]
		if !failed {
			result, fault, failed = f.dispatch(endpoint, method, params)
		}
		f.mu.Unlock()

		if failed {
			writeXML(w, func() ([]byte, error) { return encodeFault(fault) })
			return
		}
		writeXML(w, func() ([]byte, error) { return encodeResponse(result) })
	}
}

func (f *FarmServer) takeBroken(method string) bool {
	n := f.broken[method]
	if n <= 0 {
		return false
	}
	f.broken[method] = n - 1
	return true
}

func (f *FarmServer) dispatch(endpoint, method string, params []any) (any, xmlrpc.FaultError, bool) {
	switch {
	case endpoint == "auth" && method == "auth.getSessionKey":
		return f.login(params)
	case endpoint == "session" && method == "service.motd":
		return map[string]any{"accepting": f.accepting, "motd": f.motd}, xmlrpc.FaultError{}, false
	case endpoint == "session" && method == "session.getSessions":
		return f.getSessions(params)
	case endpoint == "session" && strings.HasPrefix(method, "session."):
		return f.keyed(strings.TrimPrefix(method, "session."), params)
	}
	return nil, xmlrpc.FaultError{Code: 404, String: "unknown method " + method}, true
}

func (f *FarmServer) login(params []any) (any, xmlrpc.FaultError, bool) {
	user, _ := paramString(params, 0)
	hash, _ := paramString(params, 1)
	account, ok := f.users[user]
	if !ok || account.hash != hash {
		return nil, xmlrpc.FaultError{Code: 1, String: FaultUnknownUser}, true
	}
	return map[string]any{"key": f.issueKey(account.id), "userID": account.id}, xmlrpc.FaultError{}, false
}

func (f *FarmServer) getSessions(params []any) (any, xmlrpc.FaultError, bool) {
	userID, _ := paramInt(params, 0)
	stage, _ := paramString(params, 1)
	offset, _ := paramInt(params, 2)
	limit, _ := paramInt(params, 3)

	var matched []map[string]any
	for _, s := range f.sessions {
		if s.Owner != userID || s.Stage != stage {
			continue
		}
		matched = append(matched, map[string]any{
			"id":             s.ID,
			"title":          s.Title,
			"frameStart":     s.FrameStart,
			"frameEnd":       s.FrameEnd,
			"framesRendered": s.FramesRendered,
		})
	}
	if int(offset) >= len(matched) {
		return []any{}, xmlrpc.FaultError{}, false
	}
	matched = matched[offset:]
	if limit > 0 && int(limit) < len(matched) {
		matched = matched[:limit]
	}
	return matched, xmlrpc.FaultError{}, false
}

func (f *FarmServer) keyed(name string, params []any) (any, xmlrpc.FaultError, bool) {
	userID, _ := paramInt(params, 0)
	key, _ := paramString(params, 1)
	if key == "" || f.keys[userID] != key {
		return nil, xmlrpc.FaultError{Code: 2, String: FaultBadKey}, true
	}

	if name == "createSession" {
		s := f.openSession(userID)
		return map[string]any{"key": f.issueKey(userID), "sessionId": s.ID}, xmlrpc.FaultError{}, false
	}

	sessionID, _ := paramInt(params, 2)
	s := f.findSession(sessionID)
	if s == nil || s.Owner != userID {
		return nil, xmlrpc.FaultError{Code: 3, String: FaultNoSession}, true
	}
	switch {
	case name == "submit":
		s.Submitted = true
		s.Stage = "accept"
	case name == "cancelSession":
		s.Stage = "cancelled"
	case strings.HasPrefix(name, "set") && len(params) >= 4:
		s.Params[strings.TrimPrefix(name, "set")] = params[3]
		if name == "setTitle" {
			s.Title, _ = params[3].(string)
		}
		if name == "setStartFrame" {
			s.FrameStart, _ = asInt(params[3])
		}
		if name == "setEndFrame" {
			s.FrameEnd, _ = asInt(params[3])
		}
	default:
		return nil, xmlrpc.FaultError{Code: 404, String: "unknown method session." + name}, true
	}
	return map[string]any{"key": f.issueKey(userID)}, xmlrpc.FaultError{}, false
}

func (f *FarmServer) openSession(owner int64) *FarmSession {
	for _, s := range f.sessions {
		if s.Owner == owner && !s.Submitted && s.Stage == "" {
			return s
		}
	}
	f.nextSession++
	s := &FarmSession{ID: f.nextSession, Owner: owner, Params: make(map[string]any)}
	f.sessions = append(f.sessions, s)
	return s
}

func (f *FarmServer) findSession(id int64) *FarmSession {
	for _, s := range f.sessions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (f *FarmServer) issueKey(userID int64) string {
	f.keySeq++
	key := "K" + strconv.Itoa(f.keySeq)
	f.keys[userID] = key
	return key
}

func (f *FarmServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" {
		http.Error(w, "expected multipart/form-data", http.StatusBadRequest)
		return
	}
	upload := FarmUpload{
		Boundary:      params["boundary"],
		ContentLength: r.ContentLength,
		BodyLength:    int64(len(body)),
	}
	fields := make(map[string]string)
	reader := multipart.NewReader(bytes.NewReader(body), upload.Boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(part)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if part.FormName() == "blenderfile" {
			upload.Payload = data
			upload.PartType = part.Header.Get("Content-Type")
			continue
		}
		fields[part.FormName()] = string(data)
	}
	upload.UserID, _ = strconv.ParseInt(fields["userId"], 10, 64)
	upload.SessionID, _ = strconv.ParseInt(fields["sessionId"], 10, 64)
	upload.MD5 = fields["md5sum"]

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, FarmCall{Endpoint: "file", Method: "upload"})
	if f.takeBroken("upload") {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	fault, failed := f.faults["upload"]
	switch {
	case failed:
	case fields["sessionKey"] == "" || f.keys[upload.UserID] != fields["sessionKey"]:
		fault, failed = xmlrpc.FaultError{Code: 2, String: FaultBadKey}, true
	case upload.MD5 != md5Hex(upload.Payload):
		fault, failed = xmlrpc.FaultError{Code: 4, String: "checksum mismatch"}, true
	case f.findSession(upload.SessionID) == nil:
		fault, failed = xmlrpc.FaultError{Code: 3, String: FaultNoSession}, true
	}
	if failed {
		writeXML(w, func() ([]byte, error) { return encodeFault(fault) })
		return
	}
	f.nextFile++
	upload.FileID = f.nextFile
	f.uploads = append(f.uploads, upload)
	result := map[string]any{"fileId": upload.FileID, "key": f.issueKey(upload.UserID)}
	writeXML(w, func() ([]byte, error) { return encodeResponse(result) })
}

func writeXML(w http.ResponseWriter, encode func() ([]byte, error)) {
	data, err := encode()
	if err != nil {
		http.Error(w, fmt.Sprintf("encode response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write(data)
}

func paramString(params []any, i int) (string, bool) {
	if i >= len(params) {
		return "", false
	}
	return asString(params[i])
}

func paramInt(params []any, i int) (int64, bool) {
	if i >= len(params) {
		return 0, false
	}
	return asInt(params[i])
}

func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case int64:
		return strconv.FormatInt(s, 10), true
	}
	return "", false
}
