package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/travelrag/internal/core/ports/driven"
	"github.com/custodia-labs/travelrag/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// defaultPrompts seed the prompt directory and back files that are missing
// or unusable.
//
//nolint:lll
var defaultPrompts = map[string]string{
	driven.PromptAnswerSystem: `You are a helpful travel assistant for tourist attractions.
Answer the question using ONLY the numbered context passages provided with it.
If the context does not contain the answer, or the context is NO MATCHING CONTEXT, reply exactly: "I don't have information about that in my database."
Be concise and mention the attraction names you relied on.
Use the previous conversation to resolve references such as "it" or "there", but never as a source of facts.`,

	driven.PromptCustomRole: `You are %s.
%s
Answer using ONLY the numbered context passages provided with the question.
If the context is insufficient, reply exactly: "I don't have information about that in my database."`,
}

const promptReadme = "# travelrag prompts\n\n" +
	"Edit these files to change how answers are generated. Edits are picked up\n" +
	"by the next question, also in a running chat or MCP server.\n\n" +
	"- `answer_system.txt` - system instruction for grounded answers\n" +
	"- `custom_role.txt` - used when llm.system_prompt is set; the first `%s`\n" +
	"  receives the role and the second the extra instructions\n\n" +
	"A file whose `%s` placeholders do not match the built-in prompt is ignored.\n"

type cachedPrompt struct {
	text    string
	modTime time.Time
}

// PromptStore serves prompt templates from <dir>/<name>.txt. Files are
// re-read when their modification time changes.
type PromptStore struct {
	dir string

	seedOnce sync.Once
	seedErr  error

	mu    sync.Mutex
	cache map[string]cachedPrompt
}

// NewPromptStore creates a prompt store rooted at dir. Nothing is written
// until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".travelrag", "prompts")
	}
	return &PromptStore{dir: dir, cache: make(map[string]cachedPrompt)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template for name. A missing or malformed file falls
// back to the built-in prompt; unknown names without a file are an error.
func (s *PromptStore) Load(name string) (string, error) {
	s.seedOnce.Do(s.seed)
	if s.seedErr != nil {
		logger.Debug("Prompt directory unavailable: %v", s.seedErr)
	}

	def, known := defaultPrompts[name]
	text, err := s.read(name)
	switch {
	case err == nil && known && !sameVerbs(text, def):
		logger.Warn("Ignoring %s: placeholders differ from the built-in prompt", s.path(name))
		return def, nil
	case err == nil:
		return text, nil
	case known:
		return def, nil
	default:
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
}

// read returns the trimmed file content, served from cache while the file
// is unchanged.
func (s *PromptStore) read(name string) (string, error) {
	path := s.path(name)
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.cache[name]; ok && c.modTime.Equal(info.ModTime()) {
		return c.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%s is empty", path)
	}
	s.cache[name] = cachedPrompt{text: text, modTime: info.ModTime()}
	return text, nil
}

// seed creates the directory with the default prompts and a README,
// leaving existing files untouched.
func (s *PromptStore) seed() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.seedErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	files := map[string]string{"README.md": promptReadme}
	for name, text := range defaultPrompts {
		files[name+".txt"] = text + "\n"
	}
	for name, content := range files {
		path := filepath.Join(s.dir, name)
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			s.seedErr = fmt.Errorf("write %s: %w", name, err)
			return
		}
	}
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.dir, name+".txt")
}

// sameVerbs reports whether a and b contain the same number of %s verbs,
// ignoring escaped percent signs.
func sameVerbs(a, b string) bool {
	count := func(s string) int {
		return strings.Count(strings.ReplaceAll(s, "%%", ""), "%s")
	}
	return count(a) == count(b)
}
