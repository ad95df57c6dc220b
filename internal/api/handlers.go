// internal/api/handlers.go
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ColonelBlimp/morsetrainer/internal/cw"
	"github.com/ColonelBlimp/morsetrainer/internal/engine"
)

// morseRequest is shared by the endpoints that take text or Morse.
// Morse wins when both are set.
type morseRequest struct {
	Text      string   `json:"text"`
	Morse     string   `json:"morse"`
	WPM       *float64 `json:"wpm"`
	Frequency *float64 `json:"frequency"`
}

type timingQuery struct {
	WPM       *float64 `form:"wpm"`
	Frequency *float64 `form:"frequency"`
}

type tableEntry struct {
	Char string `json:"char"`
	Code string `json:"code"`
}

func (s *Server) health(c *gin.Context) {
	t := s.engine.Timing()
	success(c, gin.H{
		"status":    "ok",
		"wpm":       t.WPM,
		"frequency": t.FrequencyHz,
		"dot_ms":    t.DotMs,
	})
}

func (s *Server) table(c *gin.Context) {
	entries := cw.Table()
	out := make([]tableEntry, len(entries))
	for i, e := range entries {
		out[i] = tableEntry{Char: string(e.Char), Code: e.Code}
	}
	success(c, out)
}

func (s *Server) encode(c *gin.Context) {
	var req morseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	success(c, gin.H{"morse": cw.Encode(req.Text)})
}

func (s *Server) decode(c *gin.Context) {
	var req morseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	success(c, gin.H{"text": cw.Decode(req.Morse)})
}

func (s *Server) render(c *gin.Context) {
	e, morse, ok := s.bindMorse(c)
	if !ok {
		return
	}
	wav, err := e.Render(morse)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="morse.wav"`)
	c.Data(http.StatusOK, "audio/wav", wav)
}

func (s *Server) vibration(c *gin.Context) {
	e, morse, ok := s.bindMorse(c)
	if !ok {
		return
	}
	pattern, err := e.Vibration(morse)
	if err != nil {
		s.fail(c, err)
		return
	}
	success(c, gin.H{"morse": morse, "pattern": pattern})
}

func (s *Server) analyze(c *gin.Context) {
	if c.Request.ContentLength > s.maxUpload {
		tooLarge(c, "Upload exceeds the size limit")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)

	var q timingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "Invalid query: "+err.Error())
		return
	}
	e, err := s.engineFor(q.WPM, q.Frequency)
	if err != nil {
		s.fail(c, err)
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			tooLarge(c, "Upload exceeds the size limit")
			return
		}
		badRequest(c, "Audio file is required")
		return
	}
	defer file.Close()

	result, err := e.Analyze(file)
	if err != nil {
		s.fail(c, err)
		return
	}
	success(c, result)
}

// bindMorse reads a morseRequest and resolves it to an engine and a Morse
// string. It answers the request itself when ok is false.
func (s *Server) bindMorse(c *gin.Context) (e *engine.Engine, morse string, ok bool) {
	var req morseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return nil, "", false
	}
	if req.Morse == "" && req.Text == "" {
		badRequest(c, "text or morse is required")
		return nil, "", false
	}
	e, err := s.engineFor(req.WPM, req.Frequency)
	if err != nil {
		s.fail(c, err)
		return nil, "", false
	}
	morse = req.Morse
	if morse == "" {
		morse = cw.Encode(req.Text)
	}
	return e, morse, true
}

// engineFor returns the server engine, or a copy with the requested speed
// and pitch when either is given.
func (s *Server) engineFor(wpm, frequency *float64) (*engine.Engine, error) {
	if wpm == nil && frequency == nil {
		return s.engine, nil
	}
	t := s.engine.Timing()
	w, f := t.WPM, t.FrequencyHz
	if wpm != nil {
		w = *wpm
	}
	if frequency != nil {
		f = *frequency
	}
	return s.engine.WithTiming(w, f)
}

func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, cw.ErrInvalidParameter), errors.Is(err, cw.ErrInvalidInput):
		badRequest(c, err.Error())
	case errors.Is(err, cw.ErrDecodeFailure):
		unprocessable(c, err.Error())
	default:
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
		internalError(c, "Request failed")
	}
}
