package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kolo/xmlrpc"

	"renderfarm/internal/fileutil"
	"renderfarm/internal/logging"
	"renderfarm/internal/rpc"
	"renderfarm/internal/services"
)

// FileField is the multipart field carrying the scene bytes.
const FileField = "blenderfile"

const (
	boundaryLength  = 30
	boundaryLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// HTTPDoer is the transport uploads are sent through.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request identifies the file and the session it belongs to.
type Request struct {
	UserID    int64
	Key       string
	SessionID int64
	Path      string
}

// Result describes a completed upload.
type Result struct {
	FileID int64
	// Key is the next session key when the server rotated it, otherwise the
	// key the upload was sent with.
	Key  string
	MD5  string
	Size int64
}

// Uploader posts scene files to the storage endpoint.
type Uploader struct {
	endpoint string
	client   HTTPDoer
	logger   *slog.Logger
	boundary func() string
}

// Option customizes the uploader.
type Option func(*Uploader)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Uploader) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithBoundary overrides boundary generation.
func WithBoundary(fn func() string) Option {
	return func(u *Uploader) {
		if fn != nil {
			u.boundary = fn
		}
	}
}

// New builds an uploader posting to endpoint through client.
func New(endpoint string, client HTTPDoer, opts ...Option) *Uploader {
	u := &Uploader{
		endpoint: endpoint,
		client:   client,
		logger:   logging.NewNop(),
		boundary: RandomBoundary,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.client == nil {
		u.client = http.DefaultClient
	}
	u.logger = logging.NewComponentLogger(u.logger, "upload")
	return u
}

// RandomBoundary returns a 30-letter multipart boundary.
func RandomBoundary() string {
	var b strings.Builder
	b.Grow(boundaryLength)
	for range boundaryLength {
		b.WriteByte(boundaryLetters[rand.IntN(len(boundaryLetters))])
	}
	return b.String()
}

// Send uploads req.Path and returns the server's file id. Every failure is
// tagged services.ErrTransport.
func (u *Uploader) Send(ctx context.Context, req Request) (Result, error) {
	payload, digest, err := fileutil.ReadFileMD5(req.Path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransport, "upload", "read", req.Path, err)
	}

	body, contentType, err := u.encode(req, payload, digest)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransport, "upload", "encode", "", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransport, "upload", "request", "", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.ContentLength = int64(len(body))

	resp, err := u.client.Do(httpReq)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransport, "upload", "post", "", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransport, "upload", "read response", "", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return Result{}, services.Wrap(services.ErrTransport, "upload", "post", fmt.Sprintf("http %d", resp.StatusCode), nil)
	}

	value, err := decodeResponse(raw)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransport, "upload", "decode response", "", err)
	}
	rawID, _ := rpc.Member(value, "fileId", "fileID", "file_id")
	fileID, ok := rpc.AsInt(rawID)
	if !ok {
		return Result{}, services.Wrap(services.ErrTransport, "upload", "decode response", "response carries no fileId", nil)
	}
	result := Result{FileID: fileID, Key: req.Key, MD5: digest, Size: int64(len(payload))}
	if rawKey, ok := rpc.Member(value, "key"); ok {
		if key, ok := rawKey.(string); ok && key != "" {
			result.Key = key
		}
	}

	logging.WithContext(ctx, u.logger).Info("scene uploaded",
		logging.Int64("file_id", fileID),
		logging.Int64("bytes", result.Size),
		logging.String("md5", digest))
	return result, nil
}

// decodeResponse reads the XML-RPC reply of the storage endpoint. A fault
// is returned as rpc.Fault.
func decodeResponse(raw []byte) (any, error) {
	response := xmlrpc.Response(raw)
	if err := response.Err(); err != nil {
		return nil, err
	}
	var value any
	if err := response.Unmarshal(&value); err != nil {
		return nil, err
	}
	return value, nil
}

func (u *Uploader) encode(req Request, payload []byte, digest string) ([]byte, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.SetBoundary(u.boundary()); err != nil {
		return nil, "", err
	}
	fields := []struct{ name, value string }{
		{"userId", strconv.FormatInt(req.UserID, 10)},
		{"sessionKey", req.Key},
		{"sessionId", strconv.FormatInt(req.SessionID, 10)},
		{"md5sum", digest},
	}
	for _, field := range fields {
		if err := w.WriteField(field.name, field.value); err != nil {
			return nil, "", err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		FileField, escapeQuotes(filepath.Base(req.Path))))
	header.Set("Content-Type", "application/octet-stream")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(payload); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
