package docs

import (
	"bufio"
	"os"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// readmeTopics returns the topics listed in readme.md as "* name: description".
func readmeTopics(t *testing.T) []string {
	t.Helper()
	file, err := os.Open("readme.md")
	if err != nil {
		t.Fatalf("failed to open readme.md: %v", err)
	}
	defer file.Close()

	var topics []string
	topicRegex := regexp.MustCompile(`^\*\s+([^:]+):.*$`)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if m := topicRegex.FindStringSubmatch(scanner.Text()); len(m) > 1 {
			topics = append(topics, strings.TrimSpace(m[1]))
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("error scanning readme.md: %v", err)
	}
	return topics
}

func TestTopics(t *testing.T) {
	listed := readmeTopics(t)

	// every listed topic loads.
	for _, topic := range listed {
		if _, err := Topic(topic); err != nil {
			t.Errorf("Topic(%q) error = %v", topic, err)
		}
	}

	// every topic is listed.
	all, err := All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	for _, topic := range all {
		if !slices.Contains(listed, topic) {
			t.Errorf("topic %q is not listed in readme.md", topic)
		}
	}

	if _, err := Topic("nope"); err == nil {
		t.Error("Topic(nope) expected an error")
	}
}

func TestTopics_Star(t *testing.T) {
	got, err := Topics("*")
	if err != nil {
		t.Fatalf("Topics(*) error = %v", err)
	}
	all, _ := All()
	for _, topic := range all {
		content, _ := Topic(topic)
		if !strings.Contains(got, content) {
			t.Errorf("Topics(*) misses %q", topic)
		}
	}
}

// TestHeadings checks that every topic starts with a level one heading.
func TestHeadings(t *testing.T) {
	all, err := All()
	if err != nil {
		t.Fatal(err)
	}
	for _, topic := range append(all, "readme") {
		content, err := Topic(topic)
		if err != nil {
			t.Fatal(err)
		}
		root := goldmark.DefaultParser().Parse(text.NewReader([]byte(content)))
		h, ok := root.FirstChild().(*ast.Heading)
		if !ok || h.Level != 1 {
			t.Errorf("topic %q does not start with a level one heading", topic)
		}
	}
}
