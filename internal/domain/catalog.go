package domain

// The format catalog is static data: which extensions belong to which
// category, and which targets each concrete source extension may convert to.
// Targets are declared per extension rather than per category because not all
// members of a category interconvert identically (gif, for example, has no
// tiff target).

type formatEntry struct {
	category Category
	targets  []string
}

var catalog = map[string]formatEntry{
	// audio
	"mp3": {CategoryAudio, []string{"wav", "ogg", "m4a"}},
	"wav": {CategoryAudio, []string{"mp3", "ogg", "m4a"}},
	"ogg": {CategoryAudio, []string{"mp3", "wav", "m4a"}},
	"m4a": {CategoryAudio, []string{"mp3", "wav", "ogg"}},

	// video
	"mp4": {CategoryVideo, []string{"avi", "mov", "wmv"}},
	"avi": {CategoryVideo, []string{"mp4", "mov", "wmv"}},
	"mov": {CategoryVideo, []string{"mp4", "avi", "wmv"}},
	"wmv": {CategoryVideo, []string{"mp4", "avi", "mov"}},

	// image
	"jpg":  {CategoryImage, []string{"png", "webp", "gif", "tiff", "bmp"}},
	"jpeg": {CategoryImage, []string{"png", "webp", "gif", "tiff", "bmp"}},
	"png":  {CategoryImage, []string{"jpg", "webp", "gif", "tiff", "bmp"}},
	"gif":  {CategoryImage, []string{"jpg", "png", "webp"}},
	"webp": {CategoryImage, []string{"jpg", "png", "gif", "tiff", "bmp"}},

	// document; office sources convert through the external document engine,
	// pdf sources only re-normalize to archival pdf
	"txt":  {CategoryDocument, []string{"pdf"}},
	"doc":  {CategoryDocument, []string{"pdf"}},
	"docx": {CategoryDocument, []string{"pdf"}},
	"rtf":  {CategoryDocument, []string{"pdf"}},
	"pdf":  {CategoryDocument, []string{"pdf"}},
}

var contentTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"m4a":  "audio/mp4",
	"mp4":  "video/mp4",
	"avi":  "video/x-msvideo",
	"mov":  "video/quicktime",
	"wmv":  "video/x-ms-wmv",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"tiff": "image/tiff",
	"bmp":  "image/bmp",
	"txt":  "text/plain",
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"rtf":  "application/rtf",
}

// CategoryOf resolves the category a source extension belongs to.
func CategoryOf(ext string) (Category, bool) {
	entry, ok := catalog[ext]
	return entry.category, ok
}

// AllowedTargets returns the target formats permitted for a source extension.
// An empty result means the extension is not a supported source.
func AllowedTargets(ext string) []string {
	entry, ok := catalog[ext]
	if !ok {
		return nil
	}
	out := make([]string, len(entry.targets))
	copy(out, entry.targets)
	return out
}

// TargetAllowed reports whether the (source extension, target format) pair is
// present in the catalog.
func TargetAllowed(ext, target string) bool {
	entry, ok := catalog[ext]
	if !ok {
		return false
	}
	for _, t := range entry.targets {
		if t == target {
			return true
		}
	}
	return false
}

// ContentTypeOf returns the MIME type served for a format token, falling back
// to application/octet-stream.
func ContentTypeOf(ext string) string {
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
