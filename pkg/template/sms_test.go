package template_test

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/groomly/notify/pkg/template"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func TestSegmentCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		length int
		want   int
	}{
		{0, 1},
		{1, 1},
		{160, 1},
		{161, 2},
		{306, 2},
		{307, 3},
		{459, 3},
		{460, 4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, template.SegmentCount(strings.Repeat("a", tt.length)), "length %d", tt.length)
	}
}

func TestEngine_WorstCaseLength(t *testing.T) {
	t.Parallel()

	engine := template.New(template.BusinessContext{Name: "Happy Paws"})

	t.Run("declared max length wins", func(t *testing.T) {
		t.Parallel()

		tpl := template.Template{
			Channel:   template.ChannelSMS,
			BodyText:  "Hi {{pet_name}}!",
			Variables: []template.Variable{{Name: "pet_name", MaxLength: 12}},
		}
		// "Hi " + 12 + "!"
		assert.Equal(t, 16, engine.WorstCaseLength(tpl))
	})

	t.Run("undeclared variable uses conservative default", func(t *testing.T) {
		t.Parallel()

		tpl := template.Template{Channel: template.ChannelSMS, BodyText: "{{x}}"}
		assert.Equal(t, 30, engine.WorstCaseLength(tpl))
	})

	t.Run("long urls counted at shortener length", func(t *testing.T) {
		t.Parallel()

		tpl := template.Template{
			Channel:  template.ChannelSMS,
			BodyText: "Book: https://example.test/some/very/long/booking/path?token=abcdef",
		}
		// "Book: " + 23-char placeholder
		assert.Equal(t, 29, engine.WorstCaseLength(tpl))
	})

	t.Run("short urls left alone", func(t *testing.T) {
		t.Parallel()

		tpl := template.Template{Channel: template.ChannelSMS, BodyText: "Go https://hp.test/a"}
		assert.Equal(t, 20, engine.WorstCaseLength(tpl))
	})

	t.Run("business fields use real values", func(t *testing.T) {
		t.Parallel()

		tpl := template.Template{Channel: template.ChannelSMS, BodyText: "{{business.name}}"}
		assert.Equal(t, len("Happy Paws"), engine.WorstCaseLength(tpl))
	})
}

func TestEngine_EstimateSegments(t *testing.T) {
	t.Parallel()

	engine := template.New(template.BusinessContext{})
	tpl := template.Template{
		Channel:   template.ChannelSMS,
		BodyText:  strings.Repeat("a", 100) + "{{note}}",
		Variables: []template.Variable{{Name: "note", MaxLength: 100}},
	}
	// Worst case 200 chars, over the single-segment boundary.
	assert.Equal(t, 2, engine.EstimateSegments(tpl))
}
