// Package json exports Sessions as JSON transcripts.
//
// A transcript is a v1 envelope. Images are stored once, base64 encoded, and
// turns refer to them by index, so a carried-forward image is not repeated.
package json

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/glimpse"
)

// envelope is the v1 wire format for an exported session.
type envelope struct {
	Version   int        `json:"version"`
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Images    []imageDTO `json:"images"`
	Turns     []turnDTO  `json:"turns"`
}

type imageDTO struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type turnDTO struct {
	Question      string    `json:"question"`
	Image         *int      `json:"image,omitempty"`
	Attached      bool      `json:"attached,omitempty"`
	Answer        string    `json:"answer"`
	StopReason    string    `json:"stop_reason"`
	RawStopReason string    `json:"raw_stop_reason,omitempty"`
	Usage         usageDTO  `json:"usage"`
	AskedAt       time.Time `json:"asked_at"`
	AnsweredAt    time.Time `json:"answered_at"`
}

type usageDTO struct {
	InputTokens     int `json:"input_tokens"`
	OutputTokens    int `json:"output_tokens"`
	CacheReadTokens int `json:"cache_read_tokens,omitempty"`
}

// Transcript is a decoded export.
type Transcript struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Turns     []glimpse.Turn
}

// MarshalSession serializes a Session's turns to JSON in v1 envelope format.
func MarshalSession(s *glimpse.Session) ([]byte, error) {
	turns := s.Turns()
	env := envelope{
		Version:   1,
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt(),
		Images:    []imageDTO{},
		Turns:     make([]turnDTO, len(turns)),
	}
	index := make(map[*glimpse.Image]int)
	for i, t := range turns {
		dto := turnDTO{
			Question:      t.Question,
			Attached:      t.Attached,
			Answer:        t.Answer,
			StopReason:    string(t.StopReason),
			RawStopReason: t.RawStopReason,
			Usage: usageDTO{
				InputTokens:     t.Usage.InputTokens,
				OutputTokens:    t.Usage.OutputTokens,
				CacheReadTokens: t.Usage.CacheReadTokens,
			},
			AskedAt:    t.AskedAt,
			AnsweredAt: t.AnsweredAt,
		}
		if t.Image != nil {
			n, ok := index[t.Image]
			if !ok {
				n = len(env.Images)
				index[t.Image] = n
				env.Images = append(env.Images, imageDTO{
					Name:     t.Image.Name,
					MimeType: t.Image.MimeType,
					Data:     base64.StdEncoding.EncodeToString(t.Image.Data),
				})
			}
			dto.Image = &n
		}
		env.Turns[i] = dto
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalTranscript decodes a v1 export. Turns that shared an image in
// the session share one *glimpse.Image in the result.
func UnmarshalTranscript(data []byte) (Transcript, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Transcript{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return Transcript{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}

	images := make([]*glimpse.Image, len(env.Images))
	for i, dto := range env.Images {
		raw, err := base64.StdEncoding.DecodeString(dto.Data)
		if err != nil {
			return Transcript{}, fmt.Errorf("image %d: decode base64: %w", i, err)
		}
		img, err := glimpse.NewImage(dto.Name, raw, dto.MimeType)
		if err != nil {
			return Transcript{}, fmt.Errorf("image %d: %w", i, err)
		}
		images[i] = &img
	}

	turns := make([]glimpse.Turn, len(env.Turns))
	for i, dto := range env.Turns {
		t := glimpse.Turn{
			Question:      dto.Question,
			Attached:      dto.Attached,
			Answer:        dto.Answer,
			StopReason:    glimpse.StopReason(dto.StopReason),
			RawStopReason: dto.RawStopReason,
			Usage: glimpse.Usage{
				InputTokens:     dto.Usage.InputTokens,
				OutputTokens:    dto.Usage.OutputTokens,
				CacheReadTokens: dto.Usage.CacheReadTokens,
			},
			AskedAt:    dto.AskedAt,
			AnsweredAt: dto.AnsweredAt,
		}
		if dto.Image != nil {
			n := *dto.Image
			if n < 0 || n >= len(images) {
				return Transcript{}, fmt.Errorf("turn %d: image index %d out of range", i, n)
			}
			t.Image = images[n]
		}
		turns[i] = t
	}

	return Transcript{
		ID:        env.ID,
		CreatedAt: env.CreatedAt,
		UpdatedAt: env.UpdatedAt,
		Turns:     turns,
	}, nil
}

// Save writes a Session transcript to a JSON file, creating parent
// directories as needed. The file is replaced atomically.
func Save(path string, s *glimpse.Session) error {
	data, err := MarshalSession(s)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
