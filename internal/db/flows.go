package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Project-Sylos/Sitemap/internal/types"
)

// ListFlowNodes returns the nodes of a flow in insertion order
func (db *DB) ListFlowNodes(ctx context.Context, flowID string) ([]types.FlowNode, error) {
	rows, err := db.query(ctx,
		"SELECT flow_id, id, type, label, x, y, item_id, data FROM flow_nodes WHERE flow_id = ? ORDER BY sort_index, id",
		flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes of flow %s: %w", flowID, err)
	}
	defer rows.Close()

	nodes := []types.FlowNode{}
	for rows.Next() {
		var (
			n    types.FlowNode
			data sql.NullString
		)
		if err := rows.Scan(&n.FlowID, &n.ID, &n.Type, &n.Label, &n.X, &n.Y, &n.ItemID, &data); err != nil {
			return nil, fmt.Errorf("failed to scan flow node: %w", err)
		}
		n.Data = rawJSON(data)
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// ListFlowEdges returns the edges of a flow in insertion order
func (db *DB) ListFlowEdges(ctx context.Context, flowID string) ([]types.FlowEdge, error) {
	rows, err := db.query(ctx,
		"SELECT flow_id, id, source, target, label, data FROM flow_edges WHERE flow_id = ? ORDER BY sort_index, id",
		flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges of flow %s: %w", flowID, err)
	}
	defer rows.Close()

	edges := []types.FlowEdge{}
	for rows.Next() {
		var (
			e    types.FlowEdge
			data sql.NullString
		)
		if err := rows.Scan(&e.FlowID, &e.ID, &e.Source, &e.Target, &e.Label, &data); err != nil {
			return nil, fmt.Errorf("failed to scan flow edge: %w", err)
		}
		e.Data = rawJSON(data)
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// CreateFlowNode appends a node to a flow
func (db *DB) CreateFlowNode(ctx context.Context, n *types.FlowNode) error {
	idx, err := db.nextSortIndex(ctx, "flow_nodes", n.FlowID)
	if err != nil {
		return err
	}
	return db.insertFlowNode(ctx, n, idx)
}

// CreateFlowEdge appends an edge to a flow
func (db *DB) CreateFlowEdge(ctx context.Context, e *types.FlowEdge) error {
	idx, err := db.nextSortIndex(ctx, "flow_edges", e.FlowID)
	if err != nil {
		return err
	}
	return db.insertFlowEdge(ctx, e, idx)
}

// DeleteFlow removes every node and edge of a flow
func (db *DB) DeleteFlow(ctx context.Context, flowID string) error {
	if _, err := db.exec(ctx, "DELETE FROM flow_edges WHERE flow_id = ?", flowID); err != nil {
		return fmt.Errorf("failed to delete edges of flow %s: %w", flowID, err)
	}
	if _, err := db.exec(ctx, "DELETE FROM flow_nodes WHERE flow_id = ?", flowID); err != nil {
		return fmt.Errorf("failed to delete nodes of flow %s: %w", flowID, err)
	}
	return nil
}

// ReplaceFlow deletes the flow's graph and writes nodes and edges in its
// place, all in one transaction.
func (db *DB) ReplaceFlow(ctx context.Context, flowID string, nodes []types.FlowNode, edges []types.FlowEdge) error {
	return db.WithTx(ctx, func(tx *DB) error {
		if err := tx.DeleteFlow(ctx, flowID); err != nil {
			return err
		}
		for i := range nodes {
			nodes[i].FlowID = flowID
			if err := tx.insertFlowNode(ctx, &nodes[i], i); err != nil {
				return err
			}
		}
		for i := range edges {
			edges[i].FlowID = flowID
			if err := tx.insertFlowEdge(ctx, &edges[i], i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *DB) insertFlowNode(ctx context.Context, n *types.FlowNode, idx int) error {
	_, err := db.exec(ctx,
		"INSERT INTO flow_nodes (flow_id, id, type, label, x, y, item_id, data, sort_index) VALUES ("+placeholders(9)+")",
		n.FlowID, n.ID, n.Type, n.Label, n.X, n.Y, n.ItemID, nullJSON(n.Data), idx)
	if err != nil {
		return fmt.Errorf("failed to insert node %s of flow %s: %w", n.ID, n.FlowID, err)
	}
	return nil
}

func (db *DB) insertFlowEdge(ctx context.Context, e *types.FlowEdge, idx int) error {
	_, err := db.exec(ctx,
		"INSERT INTO flow_edges (flow_id, id, source, target, label, data, sort_index) VALUES ("+placeholders(7)+")",
		e.FlowID, e.ID, e.Source, e.Target, e.Label, nullJSON(e.Data), idx)
	if err != nil {
		return fmt.Errorf("failed to insert edge %s of flow %s: %w", e.ID, e.FlowID, err)
	}
	return nil
}

func (db *DB) nextSortIndex(ctx context.Context, table, flowID string) (int, error) {
	var next int
	err := db.queryRow(ctx, "SELECT COALESCE(MAX(sort_index) + 1, 0) FROM "+table+" WHERE flow_id = ?", flowID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next index in %s: %w", table, err)
	}
	return next, nil
}
