package discovery

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"stp/internal/domain"
)

// attributeKinds maps normalized MSTest attribute names onto marker kinds.
// Names are lowercased with any namespace prefix and "Attribute" suffix removed.
var attributeKinds = map[string]domain.MarkerKind{
	"testclass":          domain.MarkerTestClass,
	"testmethod":         domain.MarkerTestCase,
	"datatestmethod":     domain.MarkerTestCase,
	"ignore":             domain.MarkerIgnore,
	"assemblyinitialize": domain.MarkerAssemblySetup,
	"assemblycleanup":    domain.MarkerAssemblyTeardown,
	"classinitialize":    domain.MarkerClassSetup,
	"classcleanup":       domain.MarkerClassTeardown,
	"testinitialize":     domain.MarkerCaseSetup,
	"testcleanup":        domain.MarkerCaseTeardown,
	"testcategory":       domain.MarkerCategory,
	"description":        domain.MarkerDescription,
	"timeout":            domain.MarkerTimeout,
}

var (
	namespacePattern = regexp.MustCompile(`^namespace\s+([\w.]+)\s*(;)?`)
	typePattern      = regexp.MustCompile(`^(?:(?:public|internal|private|protected|static|sealed|abstract|partial|unsafe|new)\s+)*(class|struct|interface|enum|record)\s+(\w+)(?:\s*<[^>{]*>)?(?:\s*:\s*([\w.]+))?`)
	// - public void CreateInvalidContainer()
	// - public static void MyClassInitialize(TestContext testContext)
	// - public async Task UploadAsync()
	methodPattern = regexp.MustCompile(`^((?:(?:public|internal|private|protected|static|virtual|override|async|sealed|new|unsafe|extern|abstract)\s+)*)[\w.<>\[\],?]+(?:\s*<[^>]*>)?\s+(\w+)\s*(?:<[^>]*>)?\s*\(`)
)

// Parser parses MSTest source files into type descriptors
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile reads and parses one source file
func (p *Parser) ParseFile(filePath, assembly string) ([]domain.TypeDescriptor, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file %s: %w", filePath, err)
	}
	return p.Parse(string(content), filePath, assembly), nil
}

type scope struct {
	kind     string // namespace, class, other
	name     string // qualified for classes
	declared int    // brace depth at the declaration
	opened   bool
	typeIdx  int
}

// Parse extracts every class declared in src, in declaration order. Methods
// are recorded when declared directly in a class body.
func (p *Parser) Parse(src, filePath, assembly string) []domain.TypeDescriptor {
	var (
		types   []domain.TypeDescriptor
		scopes  []scope
		pending domain.Markers
		fileNS  string
		depth   int
	)

	lines := strings.Split(stripComments(src), "\n")
	for i, line := range lines {
		rest := strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))

		// peel leading attribute groups: [TestMethod] [TestCategory(Tag.Function)][Timeout(100)]
		for strings.HasPrefix(rest, "[") {
			end := closingBracket(rest)
			if end < 0 {
				break
			}
			pending = append(pending, parseAttributeGroup(rest[1:end])...)
			rest = strings.TrimSpace(rest[end+1:])
		}

		top := topScope(scopes)
		switch {
		case rest == "" || strings.HasPrefix(rest, "#"):
		case namespacePattern.MatchString(rest):
			m := namespacePattern.FindStringSubmatch(rest)
			if m[2] == ";" {
				fileNS = m[1]
			} else {
				scopes = append(scopes, scope{kind: "namespace", name: m[1], declared: depth})
			}
			pending = nil
		case typePattern.MatchString(rest):
			m := typePattern.FindStringSubmatch(rest)
			bodiless := strings.HasSuffix(rest, ";") && !strings.Contains(rest, "{")
			if m[1] != "class" && m[1] != "record" {
				if !bodiless {
					scopes = append(scopes, scope{kind: "other", declared: depth, typeIdx: -1})
				}
				pending = nil
				break
			}
			name := qualify(scopes, fileNS, m[2])
			types = append(types, domain.TypeDescriptor{
				Name:     name,
				Assembly: assembly,
				Base:     m[3],
				Markers:  pending,
			})
			if !bodiless {
				scopes = append(scopes, scope{kind: "class", name: name, declared: depth, typeIdx: len(types) - 1})
			}
			pending = nil
		case top != nil && top.kind == "class" && top.opened && depth == top.declared+1 && methodPattern.MatchString(rest):
			m := methodPattern.FindStringSubmatch(rest)
			t := &types[top.typeIdx]
			t.Methods = append(t.Methods, domain.MethodDescriptor{
				Name:    m[2],
				Markers: pending,
				Ref: domain.SourceMethod{
					Class:  t.Name,
					Name:   m[2],
					File:   filePath,
					Line:   i + 1,
					Static: strings.Contains(" "+m[1], " static "),
				},
			})
			pending = nil
		default:
			pending = nil
		}

		depth += braceDelta(rest)

		// open and close scopes against the new depth
		for j := range scopes {
			if !scopes[j].opened && depth > scopes[j].declared {
				scopes[j].opened = true
			}
		}
		for len(scopes) > 0 {
			last := scopes[len(scopes)-1]
			if !last.opened || depth > last.declared {
				break
			}
			scopes = scopes[:len(scopes)-1]
		}
	}

	return types
}

func topScope(scopes []scope) *scope {
	for i := len(scopes) - 1; i >= 0; i-- {
		if scopes[i].kind != "namespace" {
			return &scopes[i]
		}
	}
	return nil
}

// qualify builds a reflection-style full name: Namespace.Outer+Inner
func qualify(scopes []scope, fileNS, name string) string {
	for i := len(scopes) - 1; i >= 0; i-- {
		switch scopes[i].kind {
		case "class":
			return scopes[i].name + "+" + name
		case "namespace":
			ns := scopes[i].name
			for j := i - 1; j >= 0; j-- {
				if scopes[j].kind == "namespace" {
					ns = scopes[j].name + "." + ns
				}
			}
			if fileNS != "" {
				ns = fileNS + "." + ns
			}
			return ns + "." + name
		}
	}
	if fileNS != "" {
		return fileNS + "." + name
	}
	return name
}

// parseAttributeGroup splits "TestMethod, TestCategory(Tag.Function)" into markers
func parseAttributeGroup(group string) domain.Markers {
	var markers domain.Markers
	for _, attr := range splitTopLevel(group, ',') {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			continue
		}
		// target specifiers such as assembly: or return: do not describe the declaration
		if i := strings.Index(attr, ":"); i >= 0 && !strings.Contains(attr[:i], "(") {
			continue
		}

		name, args := attr, ""
		if i := strings.Index(attr, "("); i >= 0 {
			name = attr[:i]
			args = strings.TrimSuffix(strings.TrimSpace(attr[i+1:]), ")")
		}

		kind, ok := attributeKinds[normalizeAttributeName(name)]
		if !ok {
			continue
		}
		markers = append(markers, domain.Marker{Kind: kind, Value: firstArgument(args)})
	}
	return markers
}

func normalizeAttributeName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, "Attribute")
	return strings.ToLower(name)
}

func firstArgument(args string) string {
	parts := splitTopLevel(args, ',')
	if len(parts) == 0 {
		return ""
	}
	arg := strings.TrimSpace(parts[0])
	arg = strings.TrimPrefix(arg, "@")
	if len(arg) >= 2 && strings.HasPrefix(arg, `"`) && strings.HasSuffix(arg, `"`) {
		arg = arg[1 : len(arg)-1]
	}
	return arg
}

// splitTopLevel splits s on sep outside parentheses and string literals
func splitTopLevel(s string, sep rune) []string {
	var (
		parts    []string
		depth    int
		inString bool
		start    int
	)
	for i, r := range s {
		switch {
		case inString:
			if r == '"' && (i == 0 || s[i-1] != '\\') {
				inString = false
			}
		case r == '"':
			inString = true
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		parts = append(parts, s[start:])
	}
	return parts
}

// closingBracket returns the index of the ']' matching s[0] == '['
func closingBracket(s string) int {
	depth := 0
	inString := false
	for i, r := range s {
		switch {
		case inString:
			if r == '"' && s[i-1] != '\\' {
				inString = false
			}
		case r == '"':
			inString = true
		case r == '[':
			depth++
		case r == ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// braceDelta counts '{' minus '}' outside string and char literals
func braceDelta(line string) int {
	delta := 0
	var quote rune
	for i, r := range line {
		switch {
		case quote != 0:
			if r == quote && (i == 0 || line[i-1] != '\\') {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '{':
			delta++
		case r == '}':
			delta--
		}
	}
	return delta
}

// stripComments removes // and /* */ comments while keeping line breaks and string literals intact
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	inLine, inBlock, inString := false, false, false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case inLine:
			if c == '\n' {
				inLine = false
				b.WriteByte(c)
			}
		case inBlock:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				inBlock = false
				i++
			} else if c == '\n' {
				b.WriteByte(c)
			}
		case inString:
			b.WriteByte(c)
			if c == '\\' && i+1 < len(src) {
				b.WriteByte(src[i+1])
				i++
			} else if c == '"' || c == '\n' {
				inString = false
			}
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			inLine = true
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			inBlock = true
			i++
		default:
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
		}
	}
	return b.String()
}
