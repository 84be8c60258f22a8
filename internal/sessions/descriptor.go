package sessions

import (
	"errors"
	"fmt"
	"strings"

	"renderfarm/internal/rpc"
)

// Descriptor describes one remote session.
type Descriptor struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Stage          Stage  `json:"stage"`
	FrameStart     int64  `json:"frame_start"`
	FrameEnd       int64  `json:"frame_end"`
	FramesRendered int64  `json:"frames_rendered"`
}

// Percent is the completion percentage, always within [0, 100]. A zero-frame
// range counts as one frame.
func (d Descriptor) Percent() int {
	span := d.FrameEnd - d.FrameStart
	if span < 1 {
		span = 1
	}
	rendered := d.FramesRendered
	if rendered <= 0 {
		return 0
	}
	pct := 100 * rendered / span
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// Label is the display string, e.g. "My Shot [50% complete]".
func (d Descriptor) Label() string {
	return fmt.Sprintf("%s [%d%% complete]", d.Title, d.Percent())
}

// FromRecord converts a server session record into a descriptor tagged with
// stage. Only the id is mandatory.
func FromRecord(record map[string]any, stage Stage) (Descriptor, error) {
	rawID, ok := rpc.Member(record, "id", "sessionId", "sessionID")
	if !ok {
		return Descriptor{}, errors.New("session record without id")
	}
	id, ok := rpc.AsInt(rawID)
	if !ok {
		return Descriptor{}, fmt.Errorf("session record id %v is not an integer", rawID)
	}
	d := Descriptor{ID: id, Stage: stage}
	if v, ok := rpc.Member(record, "title", "name"); ok {
		d.Title, _ = rpc.AsString(v)
		d.Title = strings.TrimSpace(d.Title)
	}
	d.FrameStart = intMember(record, "frameStart", "start")
	d.FrameEnd = intMember(record, "frameEnd", "end")
	d.FramesRendered = intMember(record, "framesRendered", "frames")
	return d, nil
}

func intMember(record map[string]any, keys ...string) int64 {
	v, ok := rpc.Member(record, keys...)
	if !ok {
		return 0
	}
	n, _ := rpc.AsInt(v)
	return n
}
