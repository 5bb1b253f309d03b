package plan

import (
	"strings"
	"unicode"

	"github.com/matzehuels/archviz/pkg/diagram"
)

// kindRule maps any of its keywords to a diagram kind. Rules are tried in
// order and the first match wins, so "message" resolves to sns before sqs.
type kindRule struct {
	kind     string
	keywords []string
}

var kindRules = []kindRule{
	{"codecommit", []string{"github", "git", "repo", "source"}},
	{"codebuild", []string{"jenkins", "ci", "build", "pipeline"}},
	{"sns", []string{"slack", "notification", "alert", "message"}},
	{"eks", []string{"kubernetes", "k8s", "cluster"}},
	{"ecs", []string{"pod", "container", "api_server"}},
	{"rds", []string{"database", "db", "rds", "mysql", "postgres"}},
	{"sqs", []string{"queue", "sqs", "message"}},
	{"lambda", []string{"lambda", "function", "serverless"}},
	{"elb", []string{"load_balancer", "alb", "elb", "loadbalancer"}},
	{"apigateway", []string{"api_gateway", "apigateway", "gateway"}},
	{"s3", []string{"s3", "storage", "bucket"}},
	{"cloudwatch", []string{"monitor", "cloudwatch", "logging"}},
}

// componentKinds is the fallback keyed by the analysis component type.
var componentKinds = map[string]string{
	"aws_compute":    "ec2",
	"aws_database":   "rds",
	"aws_network":    "elb",
	"aws_storage":    "s3",
	"aws_messaging":  "sqs",
	"aws_serverless": "lambda",
	"kubernetes":     "eks",
	"container":      "ecs",
	"onprem":         "ec2",
	"generic":        "ec2",
}

// shortKeyword is the length at or below which a keyword must match a whole
// token. Otherwise "ci" would match "decision" and "db" would match "sandbox".
const shortKeyword = 3

// InferKind picks a diagram kind for a service from its name and display
// label, falling back to its component type and finally to
// [diagram.DefaultKind].
func InferKind(name, label, componentType string) string {
	text := normalizeWords(name + " " + label)
	tokens := strings.Split(text, "_")

	for _, rule := range kindRules {
		for _, kw := range rule.keywords {
			if matchKeyword(text, tokens, kw) {
				return rule.kind
			}
		}
	}
	if kind, ok := componentKinds[strings.ToLower(strings.TrimSpace(componentType))]; ok {
		return kind
	}
	return diagram.DefaultKind
}

func matchKeyword(text string, tokens []string, kw string) bool {
	if len(kw) > shortKeyword {
		return strings.Contains(text, kw)
	}
	for _, tok := range tokens {
		if tok == kw {
			return true
		}
	}
	return false
}

// normalizeWords lower-cases s and joins its alphanumeric runs with
// underscores, so "API Gateway" and "api-gateway" both become "api_gateway".
func normalizeWords(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(words, "_")
}

// displayLabel turns a service name such as "order_service" into
// "Order Service".
func displayLabel(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	if len(words) == 0 {
		return name
	}
	return strings.Join(words, " ")
}
