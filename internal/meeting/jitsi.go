// Package meeting создаёт ссылки на видеовстречи.
package meeting

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JitsiProvider создаёт комнату Jitsi Meet на каждую бронь. Имя комнаты
// постоянное, поэтому при переносе ссылка не меняется.
type JitsiProvider struct {
	baseURL string
	prefix  string
}

func NewJitsiProvider(baseURL, prefix string) (*JitsiProvider, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid meeting base url %q", baseURL)
	}
	if prefix == "" {
		prefix = "consult"
	}
	return &JitsiProvider{baseURL: strings.TrimRight(baseURL, "/"), prefix: prefix}, nil
}

func (p *JitsiProvider) CreateMeeting(ctx context.Context, bookingID uuid.UUID, start time.Time, durationMinutes int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if durationMinutes <= 0 {
		return "", fmt.Errorf("meeting duration must be positive, got %d", durationMinutes)
	}
	if start.IsZero() {
		return "", fmt.Errorf("meeting start is required")
	}
	return p.baseURL + "/" + url.PathEscape(p.prefix+"-"+bookingID.String()), nil
}
