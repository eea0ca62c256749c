package viz

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/automerge/automerge-go"
	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
)

// Step is one change of a session document: the contribution it carried and
// the text right after it.
type Step struct {
	Hash         string
	Actor        string
	Seq          uint64
	Contribution string
	Text         string
	Dependencies []string
}

// History walks every change of doc in order and reads the text at textPath
// as of that change.
func History(doc *automerge.Doc, textPath []interface{}) ([]Step, error) {
	changes, err := doc.Changes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate changes: %w", err)
	}

	steps := make([]Step, 0, len(changes))
	for _, change := range changes {
		docAt, err := doc.Fork(change.Hash())
		if err != nil {
			return nil, fmt.Errorf("failed to checkout %s: %w", change.Hash(), err)
		}
		text, err := docAt.Path(textPath...).Text().Get()
		if err != nil {
			return nil, fmt.Errorf("failed to read text at %s: %w", change.Hash(), err)
		}
		step := Step{
			Hash:         change.Hash().String(),
			Actor:        change.ActorID(),
			Seq:          change.ActorSeq(),
			Contribution: change.Message(),
			Text:         text,
		}
		for _, hash := range change.Dependencies() {
			step.Dependencies = append(step.Dependencies, hash.String())
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func RenderHistoryToSvg(doc *automerge.Doc, textPath []interface{}, outputPath string) error {
	steps, err := History(doc, textPath)
	if err != nil {
		return err
	}

	g := graphviz.New()
	graph, err := g.Graph()
	if err != nil {
		return fmt.Errorf("failed to setup graph: %w", err)
	}

	nodeMap := make(map[string]*cgraph.Node)
	var edgeCounter uint64
	for _, step := range steps {
		n, err := graph.CreateNode(step.Hash)
		if err != nil {
			return fmt.Errorf("failed to create node: %w", err)
		}
		n.SetLabel(fmt.Sprintf("%s %s@%d %q len=%d", step.Hash[:8], step.Actor, step.Seq, step.Contribution, len([]rune(step.Text))))
		nodeMap[n.Name()] = n

		for _, hash := range step.Dependencies {
			_, err := graph.CreateEdge(strconv.Itoa(int(atomic.AddUint64(&edgeCounter, 1))), nodeMap[hash], n)
			if err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
		}
	}

	var buff bytes.Buffer
	if err := g.Render(graph, graphviz.SVG, &buff); err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}

	if err := os.WriteFile(outputPath, buff.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write: %w", err)
	}
	return nil
}

func RenderHistoryToTemp(doc *automerge.Doc, textPath []interface{}) (string, error) {
	tf := filepath.Join(os.TempDir(), fmt.Sprintf("%d%d.svg", time.Now().UnixNano(), rand.Int()))
	if err := RenderHistoryToSvg(doc, textPath, tf); err != nil {
		return "", err
	}
	return tf, nil
}
