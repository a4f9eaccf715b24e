package middleware

import (
	"context"
	"regexp"
	"strings"

	"github.com/aretw0/threadbare/pkg/domain"
	"github.com/aretw0/threadbare/pkg/ports"
)

// Mask is the byte that overwrites redacted text in saved lines and options.
const Mask = '*'

type redactionMiddleware struct {
	next     ports.SaveStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware masks every match of the patterns in the pending
// line and option texts before the snapshot reaches the store. Each matched
// byte becomes one Mask byte, so masked text never outgrows the buffer it is
// restored into. The resumed session shows the masked text. Story variables
// are saved as is, since conditions compare them. Invalid patterns panic.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SaveStore) ports.SaveStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactionMiddleware) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	// The caller keeps its snapshot; mask a copy.
	masked := snap.Clone()
	masked.Line = m.mask(masked.Line)
	for i := range masked.Options {
		masked.Options[i].Text = m.mask(masked.Options[i].Text)
	}
	return m.next.Save(ctx, sessionID, masked)
}

func (m *redactionMiddleware) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *redactionMiddleware) mask(s string) string {
	for _, re := range m.patterns {
		s = re.ReplaceAllStringFunc(s, func(match string) string {
			return strings.Repeat(string(Mask), len(match))
		})
	}
	return s
}
