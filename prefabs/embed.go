package prefabs

import (
	"embed"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

//go:embed *.yaml scripts/*.tengo
var embedded embed.FS

// DiskRoot is the directory, relative to the working directory, whose files
// shadow the embedded prefabs. Editing a file there takes effect on the next
// load without rebuilding.
const DiskRoot = "prefabs"

// layered reads from disk first and falls back to the embedded copies.
type layered struct {
	disk     fs.FS
	fallback fs.FS
}

func source() layered {
	return layered{disk: os.DirFS(DiskRoot), fallback: embedded}
}

func (l layered) ReadFile(name string) ([]byte, error) {
	if data, err := fs.ReadFile(l.disk, name); err == nil {
		return data, nil
	}
	return fs.ReadFile(l.fallback, name)
}

// Load reads a prefab spec. name may carry the "prefabs/" prefix.
func Load(name string) ([]byte, error) {
	return source().ReadFile(prefabName(name))
}

// LoadScript reads a script. name may be bare or carry "prefabs/" or
// "scripts/" prefixes.
func LoadScript(name string) ([]byte, error) {
	return source().ReadFile(scriptName(name))
}

// ModTime reports when the disk copy of a prefab last changed. Embedded-only
// prefabs report false.
func ModTime(name string) (time.Time, bool) {
	info, err := fs.Stat(source().disk, prefabName(name))
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// IsPrefabName reports whether path, as reported by a Watcher, names the
// prefab called name.
func IsPrefabName(p, name string) bool {
	return filepath.Base(p) == path.Base(prefabName(name))
}

func prefabName(name string) string {
	return strings.TrimPrefix(filepath.ToSlash(name), DiskRoot+"/")
}

func scriptName(name string) string {
	return path.Join("scripts", strings.TrimPrefix(prefabName(name), "scripts/"))
}
