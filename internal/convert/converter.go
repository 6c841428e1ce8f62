package convert

import (
	"context"

	"converthub/internal/domain"
)

// ProgressFunc receives mid-flight progress from a converter. Percentage is
// 0-100 and non-decreasing within a single run.
type ProgressFunc func(percentage int, detail string)

// Converter performs one category's conversions. Implementations report
// progress zero or more times and return exactly once, success or failure.
type Converter interface {
	Convert(ctx context.Context, inputPath, outputPath, targetFormat string, onProgress ProgressFunc) error
}

// Registry maps every source category to its converter capability. The set of
// categories is closed; NewRegistry takes one converter per member so the
// mapping is total by construction.
type Registry struct {
	converters map[domain.Category]Converter
}

// NewRegistry builds the category-to-converter mapping.
func NewRegistry(audio, video, image, document Converter) *Registry {
	return &Registry{converters: map[domain.Category]Converter{
		domain.CategoryAudio:    audio,
		domain.CategoryVideo:    video,
		domain.CategoryImage:    image,
		domain.CategoryDocument: document,
	}}
}

// ForCategory looks up the converter for a source category.
func (r *Registry) ForCategory(cat domain.Category) (Converter, bool) {
	c, ok := r.converters[cat]
	if !ok || c == nil {
		return nil, false
	}
	return c, true
}
