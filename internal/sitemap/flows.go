package sitemap

import (
	"context"
	"errors"
	"fmt"

	"github.com/Project-Sylos/Sitemap/internal/db"
	xlog "github.com/Project-Sylos/Sitemap/internal/log"
	"github.com/Project-Sylos/Sitemap/internal/metrics"
	"github.com/Project-Sylos/Sitemap/internal/types"
	"go.opentelemetry.io/otel/attribute"
)

// flowItem loads an item and checks it is a flow
func flowItem(ctx context.Context, tx *db.DB, flowID string) (*types.Item, error) {
	it, err := tx.GetItem(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if it.Type != types.ItemTypeFlow {
		return nil, fmt.Errorf("item %s is a %s, not a flow: %w", flowID, it.Type, types.ErrInvalid)
	}
	return it, nil
}

// GetFlow returns the full graph of a flow item
func (s *Service) GetFlow(ctx context.Context, flowID string) (*types.Flow, error) {
	it, err := flowItem(ctx, s.db, flowID)
	if err != nil {
		return nil, err
	}
	nodes, err := s.db.ListFlowNodes(ctx, flowID)
	if err != nil {
		return nil, err
	}
	edges, err := s.db.ListFlowEdges(ctx, flowID)
	if err != nil {
		return nil, err
	}
	return &types.Flow{Item: *it, Nodes: nodes, Edges: edges}, nil
}

// ListFlowNodes returns the nodes of a flow
func (s *Service) ListFlowNodes(ctx context.Context, flowID string) ([]types.FlowNode, error) {
	if _, err := flowItem(ctx, s.db, flowID); err != nil {
		return nil, err
	}
	return s.db.ListFlowNodes(ctx, flowID)
}

// ListFlowEdges returns the edges of a flow
func (s *Service) ListFlowEdges(ctx context.Context, flowID string) ([]types.FlowEdge, error) {
	if _, err := flowItem(ctx, s.db, flowID); err != nil {
		return nil, err
	}
	return s.db.ListFlowEdges(ctx, flowID)
}

// AddFlowNode appends a node to a flow. A missing id is generated.
func (s *Service) AddFlowNode(ctx context.Context, flowID string, node types.FlowNode) (*types.FlowNode, error) {
	node.FlowID = flowID
	if node.ID == "" {
		node.ID = newID()
	}

	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		it, err := flowItem(ctx, tx, flowID)
		if err != nil {
			return err
		}
		nodes, err := tx.ListFlowNodes(ctx, flowID)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			if n.ID == node.ID {
				return fmt.Errorf("node %s already exists in flow %s: %w", node.ID, flowID, types.ErrConflict)
			}
		}
		if err := checkNodeLink(ctx, tx, it.ProjectID, node); err != nil {
			return err
		}
		return tx.CreateFlowNode(ctx, &node)
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordFlowOp("add_node")
	return &node, nil
}

// AddFlowEdge appends an edge between two existing nodes of a flow
func (s *Service) AddFlowEdge(ctx context.Context, flowID string, edge types.FlowEdge) (*types.FlowEdge, error) {
	edge.FlowID = flowID
	if edge.ID == "" {
		edge.ID = newID()
	}

	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		if _, err := flowItem(ctx, tx, flowID); err != nil {
			return err
		}
		nodes, err := tx.ListFlowNodes(ctx, flowID)
		if err != nil {
			return err
		}
		edges, err := tx.ListFlowEdges(ctx, flowID)
		if err != nil {
			return err
		}
		for _, e := range edges {
			if e.ID == edge.ID {
				return fmt.Errorf("edge %s already exists in flow %s: %w", edge.ID, flowID, types.ErrConflict)
			}
		}
		if err := checkEndpoints(edge, nodeSet(nodes)); err != nil {
			return err
		}
		return tx.CreateFlowEdge(ctx, &edge)
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordFlowOp("add_edge")
	return &edge, nil
}

// SaveFlow replaces the whole graph of a flow in one transaction. Either the
// new nodes and edges are all stored or the previous graph is kept.
func (s *Service) SaveFlow(ctx context.Context, flowID string, nodes []types.FlowNode, edges []types.FlowEdge) (*types.Flow, error) {
	ctx, span := startSpan(ctx, "SaveFlow",
		attribute.String(xlog.FieldFlowID, flowID),
		attribute.Int("nodes", len(nodes)),
		attribute.Int("edges", len(edges)))
	defer span.End()

	if nodes == nil {
		nodes = []types.FlowNode{}
	}
	if edges == nil {
		edges = []types.FlowEdge{}
	}
	for i := range nodes {
		if nodes[i].ID == "" {
			nodes[i].ID = newID()
		}
	}
	for i := range edges {
		if edges[i].ID == "" {
			edges[i].ID = newID()
		}
	}
	if err := validateGraph(nodes, edges); err != nil {
		return nil, err
	}

	var it *types.Item
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		var err error
		if it, err = flowItem(ctx, tx, flowID); err != nil {
			return err
		}
		for _, n := range nodes {
			if err := checkNodeLink(ctx, tx, it.ProjectID, n); err != nil {
				return err
			}
		}
		if err := tx.ReplaceFlow(ctx, flowID, nodes, edges); err != nil {
			return err
		}
		it.UpdatedAt = s.timestamp()
		return tx.UpdateItem(ctx, it)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, it.ProjectID)
	metrics.RecordFlowOp("save")
	s.loggerFor(ctx).Debug().
		Str(xlog.FieldFlowID, flowID).
		Int("nodes", len(nodes)).
		Int("edges", len(edges)).
		Msg("flow saved")
	return &types.Flow{Item: *it, Nodes: nodes, Edges: edges}, nil
}

// validateGraph checks id uniqueness and that every edge joins known nodes
func validateGraph(nodes []types.FlowNode, edges []types.FlowEdge) error {
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if ids[n.ID] {
			return fmt.Errorf("duplicate node id %s: %w", n.ID, types.ErrInvalid)
		}
		ids[n.ID] = true
	}
	seen := make(map[string]bool, len(edges))
	for _, e := range edges {
		if seen[e.ID] {
			return fmt.Errorf("duplicate edge id %s: %w", e.ID, types.ErrInvalid)
		}
		seen[e.ID] = true
		if err := checkEndpoints(e, ids); err != nil {
			return err
		}
	}
	return nil
}

func nodeSet(nodes []types.FlowNode) map[string]bool {
	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}
	return ids
}

func checkEndpoints(e types.FlowEdge, nodes map[string]bool) error {
	if !nodes[e.Source] {
		return fmt.Errorf("edge %s source %q is not a node of the flow: %w", e.ID, e.Source, types.ErrInvalid)
	}
	if !nodes[e.Target] {
		return fmt.Errorf("edge %s target %q is not a node of the flow: %w", e.ID, e.Target, types.ErrInvalid)
	}
	return nil
}

// checkNodeLink verifies a node's item link points into the same project
func checkNodeLink(ctx context.Context, tx *db.DB, projectID string, n types.FlowNode) error {
	if n.ItemID == "" {
		return nil
	}
	linked, err := tx.GetItem(ctx, n.ItemID)
	if errors.Is(err, types.ErrNotFound) {
		return fmt.Errorf("node %s links to missing item %s: %w", n.ID, n.ItemID, types.ErrInvalid)
	}
	if err != nil {
		return err
	}
	if linked.ProjectID != projectID {
		return fmt.Errorf("node %s links to item %s of another project: %w", n.ID, n.ItemID, types.ErrInvalid)
	}
	return nil
}
