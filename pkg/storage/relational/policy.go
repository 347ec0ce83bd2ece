package relational

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/unet-io/unet/pkg/errcode"
	"github.com/unet-io/unet/pkg/policy"
	"github.com/unet-io/unet/pkg/storage"
)

func (s *Store) StorePolicyResult(ctx context.Context, nodeID uuid.UUID, ruleID string, result *policy.ExecutionResult) error {
	var actionSuccess sql.NullBool
	var actionMessage sql.NullString
	var rollbackJSON sql.NullString
	if result.Action != nil {
		actionSuccess = sql.NullBool{Bool: result.Action.Success, Valid: true}
		actionMessage = sql.NullString{String: result.Action.Message, Valid: true}
		if result.Action.Rollback != nil {
			data, err := json.Marshal(result.Action.Rollback)
			if err != nil {
				return errcode.SerializationError{Message: err.Error()}
			}
			rollbackJSON = sql.NullString{String: string(data), Valid: true}
		}
	}
	_, err := s.conn().ExecContext(ctx, `
		INSERT INTO policy_results (node_id, rule_id, satisfied, error_message, action_success, action_message, rollback_json)
		VALUES (?,?,?,?,?,?,?)`,
		nodeID.String(), ruleID, boolToInt(result.Verdict.Satisfied), result.Verdict.ErrorMessage,
		actionSuccess, actionMessage, rollbackJSON)
	if err != nil {
		return wrapWriteErr("policy_results", err)
	}
	return nil
}

func (s *Store) scanExecutionResult(rows *sql.Rows) (policy.ExecutionResult, error) {
	var r policy.ExecutionResult
	var satisfied int
	var actionSuccess sql.NullBool
	var actionMessage, rollbackJSON sql.NullString
	if err := rows.Scan(&r.RuleRef, &satisfied, &r.Verdict.ErrorMessage, &actionSuccess, &actionMessage, &rollbackJSON); err != nil {
		return r, errcode.SerializationError{Message: err.Error()}
	}
	r.Verdict.Satisfied = satisfied != 0
	if actionSuccess.Valid {
		outcome := &policy.ActionOutcome{Success: actionSuccess.Bool}
		if actionMessage.Valid {
			outcome.Message = actionMessage.String
		}
		if rollbackJSON.Valid && rollbackJSON.String != "" {
			outcome.Rollback = unmarshalCustomData(rollbackJSON.String)
		}
		r.Action = outcome
	}
	return r, nil
}

func (s *Store) GetPolicyResults(ctx context.Context, nodeID uuid.UUID) ([]policy.ExecutionResult, error) {
	rows, err := s.conn().QueryContext(ctx, `
		SELECT rule_id, satisfied, error_message, action_success, action_message, rollback_json
		FROM policy_results WHERE node_id = ? ORDER BY recorded_at`, nodeID.String())
	if err != nil {
		return nil, errcode.ConnectionError{Message: err.Error()}
	}
	defer rows.Close()
	var out []policy.ExecutionResult
	for rows.Next() {
		r, err := s.scanExecutionResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// GetLatestPolicyResults returns the most recently recorded result per
// rule id for nodeID, using SQLite's MAX(recorded_at) correlated
// subquery idiom.
func (s *Store) GetLatestPolicyResults(ctx context.Context, nodeID uuid.UUID) ([]policy.ExecutionResult, error) {
	rows, err := s.conn().QueryContext(ctx, `
		SELECT rule_id, satisfied, error_message, action_success, action_message, rollback_json
		FROM policy_results pr
		WHERE node_id = ? AND recorded_at = (
			SELECT MAX(recorded_at) FROM policy_results WHERE node_id = pr.node_id AND rule_id = pr.rule_id
		)`, nodeID.String())
	if err != nil {
		return nil, errcode.ConnectionError{Message: err.Error()}
	}
	defer rows.Close()
	var out []policy.ExecutionResult
	for rows.Next() {
		r, err := s.scanExecutionResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) GetRuleResults(ctx context.Context, ruleID string) ([]storage.NodeResult, error) {
	rows, err := s.conn().QueryContext(ctx, `
		SELECT node_id, rule_id, satisfied, error_message, action_success, action_message, rollback_json
		FROM policy_results WHERE rule_id = ? ORDER BY recorded_at`, ruleID)
	if err != nil {
		return nil, errcode.ConnectionError{Message: err.Error()}
	}
	defer rows.Close()
	var out []storage.NodeResult
	for rows.Next() {
		var nodeIDStr string
		var r policy.ExecutionResult
		var satisfied int
		var actionSuccess sql.NullBool
		var actionMessage, rollbackJSON sql.NullString
		if err := rows.Scan(&nodeIDStr, &r.RuleRef, &satisfied, &r.Verdict.ErrorMessage, &actionSuccess, &actionMessage, &rollbackJSON); err != nil {
			return nil, errcode.SerializationError{Message: err.Error()}
		}
		r.Verdict.Satisfied = satisfied != 0
		if actionSuccess.Valid {
			outcome := &policy.ActionOutcome{Success: actionSuccess.Bool, Message: actionMessage.String}
			if rollbackJSON.Valid && rollbackJSON.String != "" {
				outcome.Rollback = unmarshalCustomData(rollbackJSON.String)
			}
			r.Action = outcome
		}
		nodeID, err := uuid.Parse(nodeIDStr)
		if err != nil {
			return nil, errcode.SerializationError{Message: "bad node id in database: " + nodeIDStr}
		}
		out = append(out, storage.NodeResult{NodeID: nodeID, Result: r})
	}
	return out, nil
}

// RecordChange persists a configuration_changes row. This backend
// alone carries change-tracking storage (spec.md's domain-stack
// expansion); the tabular backend no-ops here.
func (s *Store) RecordChange(ctx context.Context, change policy.ChangeRecord) error {
	_, err := s.conn().ExecContext(ctx, `
		INSERT INTO configuration_changes (change_type, entity_type, entity_id, description, old_value, new_value)
		VALUES (?,?,?,?,?,?)`,
		change.ChangeType, change.EntityType, change.EntityID, change.Description, change.OldValue, change.NewValue)
	if err != nil {
		return wrapWriteErr("configuration_changes", err)
	}
	return nil
}

// RecordTemplateUsage persists a template_usage row.
func (s *Store) RecordTemplateUsage(ctx context.Context, usage policy.TemplateUsage) error {
	_, err := s.conn().ExecContext(ctx, `
		INSERT INTO template_usage (template_path, node_id, operation, status, error_message)
		VALUES (?,?,?,?,?)`,
		usage.TemplatePath, usage.NodeID, usage.Operation, usage.Status, usage.ErrorMessage)
	if err != nil {
		return wrapWriteErr("template_usage", err)
	}
	return nil
}
