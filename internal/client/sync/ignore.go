package sync

import (
	"bufio"
	"log/slog"
	"os"

	"github.com/openvault/vaultsync/internal/utils"
	gitignore "github.com/sabhiram/go-gitignore"
)

var defaultIgnoreLines = []string{
	// vaultsync internals
	".vaultsync/",
	".vaultsyncignore",
	// version control
	".git",
	// editors
	".vscode",
	".idea",
	".obsidian/",
	// scratch files
	"*.tmp",
	"*.log",
	// OS-specific
	".DS_Store",
	"Thumbs.db",
	"Icon",
}

// IgnoreList decides which vault paths are excluded from scanning,
// gitignore semantics. Rules come from built-in defaults plus an optional
// .vaultsyncignore file at the vault root.
type IgnoreList struct {
	ignorePath string
	ignore     *gitignore.GitIgnore
}

func NewIgnoreList(ignorePath string) *IgnoreList {
	return &IgnoreList{ignorePath: ignorePath}
}

func (s *IgnoreList) Load() {
	ignoreLines := defaultIgnoreLines

	if utils.FileExists(s.ignorePath) {
		rules := 0
		file, err := os.Open(s.ignorePath)
		if err != nil {
			slog.Warn("failed to open ignore file", "path", s.ignorePath, "error", err)
		} else {
			defer file.Close()

			scanner := bufio.NewScanner(file)
			for scanner.Scan() {
				line := scanner.Text()
				if line != "" {
					ignoreLines = append(ignoreLines, line)
					rules++
				}
			}

			if err := scanner.Err(); err != nil {
				slog.Warn("error reading ignore file", "path", s.ignorePath, "error", err)
			} else {
				slog.Info("loaded ignore file", "path", s.ignorePath, "rules", rules)
			}
		}
	}

	s.ignore = gitignore.CompileIgnoreLines(ignoreLines...)
}

func (s *IgnoreList) ShouldIgnore(path string) bool {
	return s.ignore.MatchesPath(path)
}
