package diagram

import (
	"slices"
	"strings"
)

// Representation is how a node kind is drawn.
type Representation struct {
	Caption   string // category line shown under the label
	Shape     string // Graphviz node shape
	FillColor string
	Color     string // outline colour
}

// DefaultKind is used for kinds that have no representation.
const DefaultKind = "ec2"

// kinds maps a kind tag to its representation.
var kinds = map[string]Representation{
	"ec2":        {Caption: "EC2", Shape: "box3d", FillColor: "#fff3e0", Color: "#ef6c00"},
	"ecs":        {Caption: "ECS", Shape: "component", FillColor: "#fff3e0", Color: "#ef6c00"},
	"eks":        {Caption: "EKS", Shape: "component", FillColor: "#fff3e0", Color: "#ef6c00"},
	"lambda":     {Caption: "Lambda", Shape: "hexagon", FillColor: "#fff3e0", Color: "#ef6c00"},
	"rds":        {Caption: "RDS", Shape: "cylinder", FillColor: "#e8eaf6", Color: "#3949ab"},
	"elb":        {Caption: "ELB", Shape: "invtrapezium", FillColor: "#ede7f6", Color: "#5e35b1"},
	"apigateway": {Caption: "API Gateway", Shape: "cds", FillColor: "#ede7f6", Color: "#5e35b1"},
	"sqs":        {Caption: "SQS", Shape: "box", FillColor: "#fce4ec", Color: "#c2185b"},
	"sns":        {Caption: "SNS", Shape: "note", FillColor: "#fce4ec", Color: "#c2185b"},
	"cloudwatch": {Caption: "CloudWatch", Shape: "octagon", FillColor: "#fce4ec", Color: "#ad1457"},
	"codecommit": {Caption: "CodeCommit", Shape: "folder", FillColor: "#e3f2fd", Color: "#1565c0"},
	"codebuild":  {Caption: "CodeBuild", Shape: "box", FillColor: "#e3f2fd", Color: "#1565c0"},
	"s3":         {Caption: "S3", Shape: "tab", FillColor: "#e8f5e9", Color: "#2e7d32"},
}

// Kinds returns the supported kind tags in sorted order.
func Kinds() []string {
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// NormalizeKind lower-cases and trims a kind tag.
func NormalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}

// IsKnownKind reports whether kind has a representation.
func IsKnownKind(kind string) bool {
	_, ok := kinds[NormalizeKind(kind)]
	return ok
}

// RepresentationOf returns the representation for kind, falling back to
// [DefaultKind].
func RepresentationOf(kind string) Representation {
	if r, ok := kinds[NormalizeKind(kind)]; ok {
		return r
	}
	return kinds[DefaultKind]
}
