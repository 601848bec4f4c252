package execute

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

const resultCacheTTL = 5 * time.Minute

type pistonLang struct {
	Language  string
	Version   string
	Extension string
}

// Sandbox language matrix for the Piston API.
var languageMap = map[string]pistonLang{
	"python":     {"python", "3.10", "py"},
	"javascript": {"javascript", "18.15.0", "js"},
	"typescript": {"typescript", "5.0.3", "ts"},
	"java":       {"java", "15.0.2", "java"},
	"cpp":        {"c++", "10.2.0", "cpp"},
	"c":          {"c", "10.2.0", "c"},
	"go":         {"go", "1.16.2", "go"},
	"rust":       {"rust", "1.68.2", "rs"},
	"ruby":       {"ruby", "3.0.1", "rb"},
}

// SupportedLanguages lists the runnable languages, sorted.
func SupportedLanguages() []string {
	out := make([]string, 0, len(languageMap))
	for k := range languageMap {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Result mirrors what the client renders: combined output, combined
// errors, and wall-clock duration in seconds.
type Result struct {
	Output        string  `json:"output"`
	Error         string  `json:"error,omitempty"`
	ExecutionTime float64 `json:"executionTime"`
}

// Runner submits source to the Piston execution sandbox. An optional
// Redis client caches results keyed by a hash of language+code.
type Runner struct {
	url    string
	client *http.Client
	cache  *redis.Client
}

func NewRunner(url string, timeout time.Duration, cache *redis.Client) *Runner {
	return &Runner{
		url:    url,
		client: &http.Client{Timeout: timeout},
		cache:  cache,
	}
}

type pistonFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type pistonRequest struct {
	Language           string       `json:"language"`
	Version            string       `json:"version"`
	Files              []pistonFile `json:"files"`
	Stdin              string       `json:"stdin"`
	Args               []string     `json:"args"`
	CompileTimeout     int          `json:"compile_timeout"`
	RunTimeout         int          `json:"run_timeout"`
	CompileMemoryLimit int          `json:"compile_memory_limit"`
	RunMemoryLimit     int          `json:"run_memory_limit"`
}

type pistonStage struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

type pistonResponse struct {
	Run     pistonStage  `json:"run"`
	Compile *pistonStage `json:"compile"`
}

// Run executes code in the sandbox. Only an unsupported language is an
// error to the caller; sandbox failures and timeouts come back inside the
// Result so the endpoint stays a 200 with a user-visible message.
func (r *Runner) Run(ctx context.Context, code, language string) (Result, error) {
	lang, ok := languageMap[language]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s (supported: %s)",
			ErrUnsupportedLanguage, language, strings.Join(SupportedLanguages(), ", "))
	}

	key := cacheKey(language, code)
	if cached, ok := r.cachedResult(ctx, key); ok {
		return cached, nil
	}

	body, _ := json.Marshal(pistonRequest{
		Language:           lang.Language,
		Version:            lang.Version,
		Files:              []pistonFile{{Name: "main." + lang.Extension, Content: code}},
		Args:               []string{},
		CompileTimeout:     10000,
		RunTimeout:         5000,
		CompileMemoryLimit: -1,
		RunMemoryLimit:     -1,
	})

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return Result{Error: fmt.Sprintf("Execution failed: %v", err)}, nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return Result{
				Error:         "Execution timed out. Please try again or reduce the code complexity.",
				ExecutionTime: elapsed,
			}, nil
		}
		return Result{Error: fmt.Sprintf("Execution failed: %v", err), ExecutionTime: elapsed}, nil
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return Result{
			Error:         fmt.Sprintf("Execution service error: %s", string(raw)),
			ExecutionTime: elapsed,
		}, nil
	}

	var pr pistonResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return Result{Error: fmt.Sprintf("Execution failed: %v", err), ExecutionTime: elapsed}, nil
	}

	result := combine(pr, elapsed)
	r.storeResult(ctx, key, result)
	return result, nil
}

// combine merges compile and run stages the way the editor displays them.
func combine(pr pistonResponse, elapsed float64) Result {
	output := pr.Run.Stdout
	var compileOut, compileErr string
	if pr.Compile != nil {
		compileOut = pr.Compile.Stdout
		compileErr = pr.Compile.Stderr
	}
	if compileOut != "" {
		output = fmt.Sprintf("Compile Output:\n%s\n\n%s", compileOut, output)
	}

	var errParts []string
	if compileErr != "" {
		errParts = append(errParts, "Compile Error:\n"+compileErr)
	}
	if pr.Run.Stderr != "" {
		errParts = append(errParts, "Runtime Error:\n"+pr.Run.Stderr)
	}

	output = strings.TrimSpace(output)
	if output == "" {
		output = "(No output)"
	}
	return Result{
		Output:        output,
		Error:         strings.Join(errParts, "\n\n"),
		ExecutionTime: elapsed,
	}
}

func cacheKey(language, code string) string {
	h := sha256.Sum256([]byte(language + "\x00" + code))
	return "exec:" + hex.EncodeToString(h[:])
}

func (r *Runner) cachedResult(ctx context.Context, key string) (Result, bool) {
	if r.cache == nil {
		return Result{}, false
	}
	raw, err := r.cache.Get(ctx, key).Result()
	if err != nil {
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return Result{}, false
	}
	return res, true
}

func (r *Runner) storeResult(ctx context.Context, key string, res Result) {
	if r.cache == nil {
		return
	}
	raw, _ := json.Marshal(res)
	if err := r.cache.Set(ctx, key, raw, resultCacheTTL).Err(); err != nil {
		log.Debug().Str("module", "execute").Err(err).Msg("result cache write failed")
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
