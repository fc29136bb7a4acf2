// Package analyzer scores project descriptions so the router can pick
// an appropriately sized model.
package analyzer

import (
	"regexp"
	"strings"
)

// Complexity classifies how demanding a project is to generate
type Complexity string

const (
	Simple  Complexity = "simple"
	Medium  Complexity = "medium"
	Complex Complexity = "complex"
)

// Assessment is the result of analyzing a project description
type Assessment struct {
	Complexity      Complexity
	Score           int
	LocalMinutes    int // Estimated generation time on a local model
	CloudMinutes    int // Estimated generation time on a cloud model
	EstimatedFiles  int
	MatchedKeywords []string
}

var keywordTiers = []struct {
	weight   int
	keywords []string
}{
	{1, []string{
		"simple", "basic", "hello world", "crud", "todo", "blog",
		"calculator", "counter", "form", "landing page",
	}},
	{10, []string{
		"authentication", "auth", "database", "api", "rest", "graphql",
		"dashboard", "admin", "user management", "file upload", "search",
		"pagination", "real-time", "websocket",
	}},
	{20, []string{
		"microservices", "distributed", "machine learning", "ml", "ai",
		"blockchain", "cryptocurrency", "kubernetes", "docker swarm",
		"event driven", "message queue", "kafka", "elasticsearch",
		"big data", "analytics", "data pipeline", "etl",
		"recommendation system", "neural network", "tensorflow",
		"computer vision", "nlp", "natural language",
	}},
	{30, []string{
		"enterprise", "multi-tenant", "scalable architecture",
		"high availability", "fault tolerant", "load balancer", "cdn",
		"caching layer", "monitoring", "observability", "ci/cd",
		"devops", "infrastructure", "terraform",
	}},
}

var technologyScores = map[string]int{
	"html":          1,
	"css":           1,
	"javascript":    2,
	"python":        2,
	"flask":         3,
	"fastapi":       3,
	"express":       3,
	"react":         8,
	"vue":           8,
	"node.js":       8,
	"angular":       10,
	"postgresql":    10,
	"mongodb":       10,
	"redis":         12,
	"nginx":         12,
	"docker":        15,
	"rabbitmq":      15,
	"graphql":       15,
	"aws":           15,
	"gcp":           15,
	"azure":         15,
	"kafka":         20,
	"elasticsearch": 20,
	"grpc":          20,
	"prometheus":    20,
	"jenkins":       20,
	"kubernetes":    25,
	"tensorflow":    25,
	"pytorch":       25,
	"ansible":       25,
	"terraform":     30,
}

const unknownTechnologyScore = 5

var serviceIndicators = []string{"service", "component", "module", "layer"}

var requirementCountRe = regexp.MustCompile(`(\d+)\s*(requirements?|features?|components?)`)

// thresholds separating the complexity classes
const (
	simpleMax = 15
	mediumMax = 40
)

// Analyze scores a free-text description plus an optional technology
// list and classifies the resulting complexity.
func Analyze(description string, technologies []string) Assessment {
	lower := strings.ToLower(description)
	score := 0
	var matched []string

	for _, tier := range keywordTiers {
		for _, keyword := range tier.keywords {
			if strings.Contains(lower, keyword) {
				score += tier.weight
				matched = append(matched, keyword)
			}
		}
	}

	for _, tech := range technologies {
		if weight, ok := technologyScores[strings.ToLower(strings.TrimSpace(tech))]; ok {
			score += weight
		} else {
			score += unknownTechnologyScore
		}
	}

	if len(strings.Fields(description)) > 50 {
		score += 10
	}

	serviceCount := 0
	for _, indicator := range serviceIndicators {
		serviceCount += strings.Count(lower, indicator)
	}
	if serviceCount > 3 {
		score += 15
	}

	for _, match := range requirementCountRe.FindAllStringSubmatch(lower, -1) {
		count := 0
		for _, ch := range match[1] {
			count = count*10 + int(ch-'0')
		}
		if count > 5 {
			score += count * 2
		}
	}

	complexity := classify(score)
	localMinutes, cloudMinutes := estimateMinutes(complexity)

	return Assessment{
		Complexity:      complexity,
		Score:           score,
		LocalMinutes:    localMinutes,
		CloudMinutes:    cloudMinutes,
		EstimatedFiles:  estimateFiles(complexity),
		MatchedKeywords: matched,
	}
}

func classify(score int) Complexity {
	switch {
	case score <= simpleMax:
		return Simple
	case score <= mediumMax:
		return Medium
	default:
		return Complex
	}
}

func estimateMinutes(c Complexity) (local, cloud int) {
	switch c {
	case Simple:
		return 10, 5
	case Medium:
		return 30, 15
	default:
		return 90, 45
	}
}

func estimateFiles(c Complexity) int {
	// Midpoint of the typical file-count range per class.
	switch c {
	case Simple:
		return 4
	case Medium:
		return 11
	default:
		return 22
	}
}
