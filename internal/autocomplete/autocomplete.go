package autocomplete

import (
	"fmt"
	"sort"
	"strings"
)

// Request carries the buffer, cursor offset, and language to complete in.
type Request struct {
	Code           string `json:"code"`
	CursorPosition int    `json:"cursorPosition"`
	Language       string `json:"language"`
}

// Response is the suggested completion plus the range it replaces.
type Response struct {
	Suggestion    string `json:"suggestion"`
	StartPosition int    `json:"startPosition"`
	EndPosition   int    `json:"endPosition"`
	Description   string `json:"description,omitempty"`
}

var pythonKeywords = map[string]string{
	"def":     "def function_name():\n    pass",
	"class":   "class ClassName:\n    def __init__(self):\n        pass",
	"if":      "if condition:\n    pass",
	"elif":    "elif condition:\n    pass",
	"else":    "else:\n    pass",
	"for":     "for item in iterable:\n    pass",
	"while":   "while condition:\n    pass",
	"try":     "try:\n    pass\nexcept Exception as e:\n    pass",
	"except":  "except Exception as e:\n    pass",
	"finally": "finally:\n    pass",
	"with":    "with open('file.txt', 'r') as f:\n    pass",
	"import":  "import module_name",
	"from":    "from module import name",
	"return":  "return value",
	"yield":   "yield value",
	"lambda":  "lambda x: x",
	"async":   "async def function_name():\n    pass",
	"await":   "await coroutine()",
	"print":   "print()",
	"len":     "len()",
	"range":   "range()",
	"list":    "list()",
	"dict":    "dict()",
	"set":     "set()",
	"tuple":   "tuple()",
	"str":     "str()",
	"int":     "int()",
	"float":   "float()",
	"bool":    "bool()",
	"input":   "input('Enter value: ')",
	"open":    "open('filename', 'r')",
}

var jsKeywords = map[string]string{
	"function":  "function name() {\n    \n}",
	"const":     "const name = value;",
	"let":       "let name = value;",
	"var":       "var name = value;",
	"if":        "if (condition) {\n    \n}",
	"else":      "else {\n    \n}",
	"for":       "for (let i = 0; i < length; i++) {\n    \n}",
	"while":     "while (condition) {\n    \n}",
	"class":     "class ClassName {\n    constructor() {\n        \n    }\n}",
	"import":    "import { name } from 'module';",
	"export":    "export default name;",
	"async":     "async function name() {\n    \n}",
	"await":     "await promise;",
	"try":       "try {\n    \n} catch (error) {\n    \n}",
	"catch":     "catch (error) {\n    \n}",
	"finally":   "finally {\n    \n}",
	"return":    "return value;",
	"console":   "console.log();",
	"fetch":     "fetch('url').then(res => res.json())",
	"arrow":     "const fn = () => {\n    \n};",
	"map":       ".map(item => item)",
	"filter":    ".filter(item => item)",
	"reduce":    ".reduce((acc, item) => acc, initialValue)",
	"usestate":  "const [state, setState] = useState(initialValue);",
	"useeffect": "useEffect(() => {\n    \n}, []);",
	"interface": "interface Name {\n    property: type;\n}",
	"type":      "type Name = {\n    property: type;\n};",
}

var commonPatterns = map[string]string{
	"todo":  "// TODO: ",
	"fixme": "// FIXME: ",
	"note":  "// NOTE: ",
	"hack":  "// HACK: ",
}

// currentWord extracts the identifier being typed at the cursor and the
// offset it starts at.
func currentWord(code string, cursor int) (string, int) {
	if cursor > len(code) {
		cursor = len(code)
	}
	if cursor < 0 {
		cursor = 0
	}

	start := cursor
	for start > 0 && isWordByte(code[start-1]) {
		start--
	}
	return strings.ToLower(code[start:cursor]), start
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func keywordsFor(language string) map[string]string {
	switch strings.ToLower(language) {
	case "python", "py":
		return merged(pythonKeywords, commonPatterns)
	case "javascript", "js", "typescript", "ts":
		return merged(jsKeywords, commonPatterns)
	default:
		return merged(pythonKeywords, jsKeywords, commonPatterns)
	}
}

func merged(maps ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// Suggest is a pure rule-based completion: exact keyword match first, then
// prefix match (two or more typed characters), then line-context fallbacks
// for unfinished python-style statements.
func Suggest(req Request) Response {
	word, wordStart := currentWord(req.Code, req.CursorPosition)
	cursor := req.CursorPosition
	if cursor > len(req.Code) {
		cursor = len(req.Code)
	}
	if cursor < 0 {
		cursor = 0
	}

	if word == "" {
		return Response{
			StartPosition: cursor,
			EndPosition:   cursor,
			Description:   "No suggestion available",
		}
	}

	keywords := keywordsFor(req.Language)

	var suggestion, description string
	if s, ok := keywords[word]; ok {
		suggestion = s
		description = fmt.Sprintf("Complete '%s' statement", word)
	} else if len(word) >= 2 {
		// Sorted for a deterministic pick when several keys share the prefix.
		keys := make([]string, 0, len(keywords))
		for key := range keywords {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if strings.HasPrefix(key, word) {
				suggestion = keywords[key]
				description = fmt.Sprintf("Suggested completion for '%s'", key)
				break
			}
		}
	}

	if suggestion == "" {
		suggestion, description = contextSuggestion(req.Code[:cursor])
	}

	if description == "" {
		description = "No suggestion available"
	}
	return Response{
		Suggestion:    suggestion,
		StartPosition: wordStart,
		EndPosition:   cursor,
		Description:   description,
	}
}

// contextSuggestion completes an unfinished statement on the current line.
func contextSuggestion(upToCursor string) (string, string) {
	lines := strings.Split(upToCursor, "\n")
	line := strings.TrimSpace(lines[len(lines)-1])

	switch {
	case strings.HasPrefix(line, "def ") && !strings.Contains(line, ":"):
		return "():\n    pass", "Complete function definition"
	case strings.HasPrefix(line, "class ") && !strings.Contains(line, ":"):
		return ":\n    def __init__(self):\n        pass", "Complete class definition"
	case strings.HasPrefix(line, "if ") && !strings.Contains(line, ":"):
		return ":\n    pass", "Complete if statement"
	case strings.HasPrefix(line, "for ") && !strings.Contains(line, ":"):
		return " in range():\n    pass", "Complete for loop"
	}
	return "", ""
}
