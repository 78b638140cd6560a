package cargo

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/rs/zerolog/log"
)

// message is the subset of cargo's --message-format=json output this tool
// reads.
type message struct {
	Reason    string `json:"reason"`
	PackageID string `json:"package_id"`
	Target    struct {
		Name string   `json:"name"`
		Kind []string `json:"kind"`
	} `json:"target"`
	Executable *string `json:"executable"`
	Success    *bool   `json:"success"`
}

// messageStream is the io.Writer given to cargo's stdout. It decodes one
// JSON message per line as output arrives and forwards anything that is not
// a message to passthrough.
type messageStream struct {
	passthrough io.Writer
	pending     []byte
	executables []string
}

func newMessageStream(passthrough io.Writer) *messageStream {
	if passthrough == nil {
		passthrough = io.Discard
	}
	return &messageStream{passthrough: passthrough}
}

func (s *messageStream) Write(p []byte) (int, error) {
	s.pending = append(s.pending, p...)
	for {
		i := bytes.IndexByte(s.pending, '\n')
		if i < 0 {
			break
		}
		s.handleLine(s.pending[:i])
		s.pending = s.pending[i+1:]
	}
	return len(p), nil
}

// Flush handles a final unterminated line.
func (s *messageStream) Flush() {
	if len(s.pending) > 0 {
		s.handleLine(s.pending)
		s.pending = nil
	}
}

func (s *messageStream) handleLine(line []byte) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return
	}
	var msg message
	if trimmed[0] != '{' || json.Unmarshal(trimmed, &msg) != nil {
		_, _ = s.passthrough.Write(append(append([]byte(nil), trimmed...), '\n'))
		return
	}

	switch msg.Reason {
	case "compiler-artifact":
		if msg.Executable == nil || *msg.Executable == "" {
			return
		}
		log.Debug().
			Str("target", msg.Target.Name).
			Str("executable", *msg.Executable).
			Msg("cargo artifact")
		s.executables = append(s.executables, *msg.Executable)
	case "build-finished":
		if msg.Success != nil {
			log.Debug().Bool("success", *msg.Success).Msg("cargo build finished")
		}
	}
}

func (s *messageStream) Executables() []string {
	return append([]string(nil), s.executables...)
}
