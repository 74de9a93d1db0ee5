// Package fileid derives safe, collision-free file names for uploaded and watched files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces a client-supplied name to ASCII letters, digits, '_', '.' and '-'.
// Accents are folded, path separators become word breaks, and leading or trailing dots
// and underscores are removed. The result may be empty.
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)
	var b strings.Builder
	for _, r := range name {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	name = b.String()
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// UniqueName returns SecureFilename(name) with a random 8-hex suffix before the
// extension, e.g. "report_1a2b3c4d.pdf". The extension is lower-cased.
func UniqueName(name string) string {
	rawExt := filepath.Ext(name)
	stem := SecureFilename(strings.TrimSuffix(name, rawExt))
	if stem == "" {
		stem = "file"
	}
	ext := ""
	if e := SecureFilename(rawExt); e != "" {
		ext = "." + strings.ToLower(e)
	}
	return stem + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8] + ext
}

// PathTag returns a stable 8-hex tag for a path. Same path always yields the same tag.
func PathTag(path string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(path)))
	return hex.EncodeToString(hash[:4])
}
