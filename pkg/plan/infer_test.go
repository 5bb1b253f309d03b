package plan

import "testing"

func TestInferKind(t *testing.T) {
	tests := []struct {
		name, label, componentType string
		want                       string
	}{
		{"github_repo", "", "", "codecommit"},
		{"jenkins", "", "", "codebuild"},
		{"ci", "", "", "codebuild"},
		{"decision_engine", "", "", "ec2"},
		{"slack_alerts", "", "", "sns"},
		{"message_bus", "", "", "sns"},
		{"order_queue", "", "", "sqs"},
		{"k8s", "", "", "eks"},
		{"worker", "Container Runner", "", "ecs"},
		{"orders_db", "", "", "rds"},
		{"sandbox", "", "", "ec2"},
		{"resize", "Lambda Function", "", "lambda"},
		{"edge", "Load Balancer", "", "elb"},
		{"public-api-gateway", "", "", "apigateway"},
		{"assets", "S3 Bucket", "", "s3"},
		{"metrics", "CloudWatch Monitor", "", "cloudwatch"},
		{"thing", "", "aws_database", "rds"},
		{"thing", "", "AWS_Network", "elb"},
		{"thing", "", "mainframe", "ec2"},
		{"thing", "", "", "ec2"},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.label+"/"+tt.componentType, func(t *testing.T) {
			if got := InferKind(tt.name, tt.label, tt.componentType); got != tt.want {
				t.Errorf("InferKind(%q, %q, %q) = %q, want %q", tt.name, tt.label, tt.componentType, got, tt.want)
			}
		})
	}
}

func TestDisplayLabel(t *testing.T) {
	tests := map[string]string{
		"order_service": "Order Service",
		"API-gateway":   "Api Gateway",
		"db":            "Db",
		"___":           "___",
	}
	for in, want := range tests {
		if got := displayLabel(in); got != want {
			t.Errorf("displayLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		desc, want string
	}{
		{`An architecture titled "Payments Platform" with queues`, "Payments Platform"},
		{`The title is 'Order Flow'`, "Order Flow"},
		{`TITLE 'Shouty'`, "Shouty"},
		{`diagram for a 'Ride Sharing' system`, "Ride Sharing"},
		{`a service mesh named "Mesh"`, "Mesh"},
		{`titled "   "`, DefaultTitle},
		{`just some services`, DefaultTitle},
		{``, DefaultTitle},
	}
	for _, tt := range tests {
		if got := ExtractTitle(tt.desc); got != tt.want {
			t.Errorf("ExtractTitle(%q) = %q, want %q", tt.desc, got, tt.want)
		}
	}
}
