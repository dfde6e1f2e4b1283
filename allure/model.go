package allure

import "strings"

// SuiteNode is one node of a report's suites tree. The same shape is
// used for the tree root, intermediate suite groupings, and leaf test
// nodes; leaves carry a uid that keys the full test case document.
type SuiteNode struct {
	UID      string      `json:"uid"`
	Name     string      `json:"name"`
	Children []SuiteNode `json:"children"`
}

// FindTest walks the tree in document order and returns the first test
// node whose name matches test within the named suite, or nil if there
// is no match. A test belongs to the nearest ancestor-or-self node
// whose name identifies it as a suite.
func (n *SuiteNode) FindTest(suite, test string) *SuiteNode {
	return n.findTest("", suite, test)
}

func (n *SuiteNode) findTest(currentSuite, suite, test string) *SuiteNode {
	if strings.Contains(n.Name, "Test") {
		currentSuite = n.Name
	}

	if currentSuite == suite && n.Name == test && n.UID != "" {
		return n
	}

	for i := range n.Children {
		if found := n.Children[i].findTest(currentSuite, suite, test); found != nil {
			return found
		}
	}

	return nil
}

// TestCase is the detailed result document for a single test,
// including its setup and teardown fixtures.
type TestCase struct {
	UID          string  `json:"uid"`
	Name         string  `json:"name"`
	Status       string  `json:"status"`
	TestStage    *Stage  `json:"testStage"`
	BeforeStages []Stage `json:"beforeStages"`
	AfterStages  []Stage `json:"afterStages"`
}

// Stage is one stage or step of a test case; steps nest arbitrarily
// and both levels can carry attachments.
type Stage struct {
	Name        string       `json:"name"`
	Status      string       `json:"status"`
	Attachments []Attachment `json:"attachments"`
	Steps       []Stage      `json:"steps"`
}

// Attachment is a named artifact attached to a stage or step. Source
// is a reference to the artifact's location, either absolute or
// relative to the report.
type Attachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

// TraceAttachment returns the first attachment identifiable as the
// playwright trace archive, searching the test stage first and then
// the setup and teardown fixtures, including nested steps. Returns nil
// when the test has no trace attached.
func (t *TestCase) TraceAttachment(name string) *Attachment {
	stages := []*Stage{}
	if t.TestStage != nil {
		stages = append(stages, t.TestStage)
	}
	for i := range t.BeforeStages {
		stages = append(stages, &t.BeforeStages[i])
	}
	for i := range t.AfterStages {
		stages = append(stages, &t.AfterStages[i])
	}

	for _, stage := range stages {
		if att := stage.findAttachment(name); att != nil {
			return att
		}
	}

	return nil
}

func (s *Stage) findAttachment(name string) *Attachment {
	for i := range s.Attachments {
		if s.Attachments[i].isTrace(name) {
			return &s.Attachments[i]
		}
	}

	for i := range s.Steps {
		if att := s.Steps[i].findAttachment(name); att != nil {
			return att
		}
	}

	return nil
}

func (a *Attachment) isTrace(name string) bool {
	if a.Name == name {
		return true
	}

	return a.Type == "application/zip" && strings.Contains(strings.ToLower(a.Name), "trace")
}
