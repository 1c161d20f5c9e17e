package extract

import (
	"strings"
)

// skillAliases maps lowercase spellings to canonical skill names. Text-based
// extractors only emit skills this lexicon knows, which keeps portfolio and
// resume mining from flooding the aggregate with noise words.
var skillAliases = map[string]string{
	"react":          "React",
	"reactjs":        "React",
	"react.js":       "React",
	"node":           "Node.js",
	"nodejs":         "Node.js",
	"node.js":        "Node.js",
	"typescript":     "TypeScript",
	"ts":             "TypeScript",
	"javascript":     "JavaScript",
	"js":             "JavaScript",
	"python":         "Python",
	"go":             "Go",
	"golang":         "Go",
	"java":           "Java",
	"c++":            "C++",
	"c#":             "C#",
	"rust":           "Rust",
	"ruby":           "Ruby",
	"php":            "PHP",
	"swift":          "Swift",
	"kotlin":         "Kotlin",
	"html":           "HTML",
	"css":            "CSS",
	"sql":            "SQL",
	"mongodb":        "MongoDB",
	"mongo":          "MongoDB",
	"postgresql":     "PostgreSQL",
	"postgres":       "PostgreSQL",
	"mysql":          "MySQL",
	"redis":          "Redis",
	"express":        "Express",
	"expressjs":      "Express",
	"django":         "Django",
	"flask":          "Flask",
	"spring":         "Spring",
	"vue":            "Vue.js",
	"vuejs":          "Vue.js",
	"vue.js":         "Vue.js",
	"angular":        "Angular",
	"next.js":        "Next.js",
	"nextjs":         "Next.js",
	"svelte":         "Svelte",
	"graphql":        "GraphQL",
	"docker":         "Docker",
	"kubernetes":     "Kubernetes",
	"k8s":            "Kubernetes",
	"aws":            "AWS",
	"azure":          "Azure",
	"gcp":            "GCP",
	"terraform":      "Terraform",
	"linux":          "Linux",
	"git":            "Git",
	"ci/cd":          "CI/CD",
	"machine learning": "Machine Learning",
	"ml":             "Machine Learning",
	"deep learning":  "Deep Learning",
	"tensorflow":     "TensorFlow",
	"pytorch":        "PyTorch",
	"pandas":         "Pandas",
	"numpy":          "NumPy",
	"kafka":          "Kafka",
	"rabbitmq":       "RabbitMQ",
	"elasticsearch":  "Elasticsearch",
	"grpc":           "gRPC",
	"rest":           "REST",
	"flutter":        "Flutter",
	"dart":           "Dart",
	"scala":          "Scala",
	"elixir":         "Elixir",
	"haskell":        "Haskell",
	"r":              "R",
	"matlab":         "MATLAB",
	"solidity":       "Solidity",
	"firebase":       "Firebase",
	"sqlite":         "SQLite",
	"tailwind":       "Tailwind CSS",
	"sass":           "Sass",
	"webpack":        "Webpack",
	"vite":           "Vite",
	"jenkins":        "Jenkins",
	"ansible":        "Ansible",
	"nginx":          "Nginx",
	"fastapi":        "FastAPI",
	"laravel":        "Laravel",
	"rails":          "Ruby on Rails",
	"ruby on rails":  "Ruby on Rails",
	"objective-c":    "Objective-C",
	"shell":          "Shell",
	"bash":           "Shell",
	"powershell":     "PowerShell",
	"jupyter notebook": "Python",
	"vim script":     "Vim Script",
}

// CanonicalSkill resolves a raw skill spelling to its canonical name.
// Unknown names get first-letter capitalization, matching how repository
// languages arrive already cased.
func CanonicalSkill(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if canonical, ok := skillAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	if trimmed == strings.ToLower(trimmed) && !strings.Contains(trimmed, " ") {
		return strings.ToUpper(trimmed[:1]) + trimmed[1:]
	}
	return trimmed
}

// lexiconMatches finds canonical skills mentioned in free text, with a count
// of occurrences per skill. Matching is case-insensitive on word boundaries.
func lexiconMatches(text string) map[string]int {
	counts := make(map[string]int)
	if text == "" {
		return counts
	}

	// Tokenize on anything that is not part of a plausible skill token.
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return false
		case r == '+' || r == '#' || r == '.' || r == '/' || r == '-':
			return false
		default:
			return true
		}
	})

	for i, token := range tokens {
		token = strings.Trim(token, "./-")
		if token == "" {
			continue
		}
		if canonical, ok := skillAliases[token]; ok {
			counts[canonical]++
			continue
		}
		// Two-word lexicon entries ("machine learning", "ruby on rails").
		if i+1 < len(tokens) {
			pair := token + " " + strings.Trim(tokens[i+1], "./-")
			if canonical, ok := skillAliases[pair]; ok {
				counts[canonical]++
			}
		}
	}
	return counts
}
