package sync

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Patterns for embedded attachment references in markdown documents:
// wiki-style embeds `![[image.png]]` (optionally with an `|alias`) and
// standard image links `![alt](dir/image.png)`.
var (
	wikiEmbedPattern = regexp.MustCompile(`!\[\[([^\]\|#]+)(?:\|[^\]]*)?\]\]`)
	mdImagePattern   = regexp.MustCompile(`!\[[^\]]*\]\(\s*<?([^)\s>]+)>?[^)]*\)`)
)

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".svg":  {},
	".webp": {},
	".bmp":  {},
}

// IsImagePath reports whether a path carries a recognized image extension.
func IsImagePath(p string) bool {
	_, ok := imageExtensions[strings.ToLower(path.Ext(p))]
	return ok
}

// ExtractEmbeds returns the attachment targets referenced from a markdown
// document, restricted to recognized image extensions, in order of first
// appearance and deduplicated. It is a pure function of the document text.
func ExtractEmbeds(text string) []string {
	var targets []string
	seen := make(map[string]struct{})

	add := func(raw string) {
		target := strings.TrimSpace(raw)
		if unescaped, err := url.PathUnescape(target); err == nil {
			target = unescaped
		}
		if target == "" || !IsImagePath(target) {
			return
		}
		if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
			return
		}
		if _, ok := seen[target]; ok {
			return
		}
		seen[target] = struct{}{}
		targets = append(targets, target)
	}

	for _, match := range wikiEmbedPattern.FindAllStringSubmatch(text, -1) {
		add(match[1])
	}
	for _, match := range mdImagePattern.FindAllStringSubmatch(text, -1) {
		add(match[1])
	}

	return targets
}

// resolveEmbed finds the local file an embed target refers to: first as a
// vault-relative path, then by unique basename anywhere in the scan.
func resolveEmbed(target, contentPrefix string, local map[string]*FileMetadata) *FileMetadata {
	cleaned := strings.TrimPrefix(path.Clean(target), "./")

	if meta, ok := local[joinRepoPath(contentPrefix, cleaned)]; ok {
		return meta
	}

	base := path.Base(cleaned)
	var found *FileMetadata
	for _, meta := range local {
		if path.Base(meta.Path) == base {
			if found != nil {
				return nil // ambiguous basename
			}
			found = meta
		}
	}
	return found
}
