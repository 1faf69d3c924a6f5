package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tpmjs/tpmjs/pkg/audit"
	"github.com/tpmjs/tpmjs/pkg/llm"
	"github.com/tpmjs/tpmjs/pkg/model"
	"github.com/tpmjs/tpmjs/pkg/server/store"
	"github.com/tpmjs/tpmjs/pkg/toolloader"
	"github.com/tpmjs/tpmjs/pkg/tools"
)

// Completer streams chat completions. *llm.Client satisfies it.
type Completer interface {
	Stream(ctx context.Context, req llm.Request, onDelta func(token string)) (*llm.Completion, error)
}

// Engine runs conversation turns for agents.
type Engine struct {
	conversations store.ConversationsStore
	simulations   store.SimulationsStore
	builtins      *tools.Registry
	loader        *toolloader.Loader
	maxToolRounds int
	audit         *audit.Logger
}

// NewEngine creates a chat engine.
func NewEngine(
	conversations store.ConversationsStore,
	simulations store.SimulationsStore,
	builtins *tools.Registry,
	loader *toolloader.Loader,
	maxToolRounds int,
) *Engine {
	if maxToolRounds <= 0 {
		maxToolRounds = 5
	}
	return &Engine{
		conversations: conversations,
		simulations:   simulations,
		builtins:      builtins,
		loader:        loader,
		maxToolRounds: maxToolRounds,
	}
}

// SetAudit attaches an audit logger; tool executions are recorded on it.
func (e *Engine) SetAudit(l *audit.Logger) {
	e.audit = l
}

// Turn is one user turn against an agent's conversation.
type Turn struct {
	Agent          model.Agent
	ConversationID string
	Input          string
	// ToolRefs are registry tools requested for this turn, by reference.
	ToolRefs []toolloader.Ref
	// ClientIP is carried through to audit records.
	ClientIP string
}

// Run executes a turn, emitting events to sink as it goes. The returned
// error covers failures before any event could be emitted; later failures
// arrive as error events so the stream can carry them to the client.
func (e *Engine) Run(ctx context.Context, completer Completer, turn Turn, sink Sink) error {
	if _, err := e.conversations.SaveMessage(model.Message{
		ConversationID: turn.ConversationID,
		Role:           model.RoleUser,
		Content:        turn.Input,
	}); err != nil {
		return fmt.Errorf("persist user message: %w", err)
	}

	toolset := e.assembleTools(ctx, turn, sink)
	history, err := e.history(turn)
	if err != nil {
		return err
	}

	transcript := []map[string]interface{}{
		{"role": model.RoleUser, "content": turn.Input},
	}
	invocations := 0
	rounds := 0
	status := "completed"

	for rounds < e.maxToolRounds {
		rounds++

		completion, err := completer.Stream(ctx, llm.Request{
			Model:       turn.Agent.Model,
			Messages:    history,
			Tools:       toolDefs(toolset),
			Temperature: &turn.Agent.Temperature,
		}, func(token string) {
			sink(Event{Type: EventToken, Data: token})
		})
		if err != nil {
			status = "failed"
			sink(Event{Type: EventError, Data: err.Error()})
			break
		}

		assistant := model.Message{
			ConversationID: turn.ConversationID,
			Role:           model.RoleAssistant,
			Content:        completion.Content,
		}
		if len(completion.ToolCalls) > 0 {
			assistant.ToolCalls = model.JSONMap{"calls": rawCalls(completion.ToolCalls)}
		}
		if _, err := e.conversations.SaveMessage(assistant); err != nil {
			status = "failed"
			sink(Event{Type: EventError, Data: err.Error()})
			break
		}
		history = append(history, llm.Message{
			Role:      model.RoleAssistant,
			Content:   completion.Content,
			ToolCalls: completion.ToolCalls,
		})
		transcript = append(transcript, map[string]interface{}{
			"role":      model.RoleAssistant,
			"content":   completion.Content,
			"toolCalls": len(completion.ToolCalls),
		})

		if len(completion.ToolCalls) == 0 {
			break
		}

		for _, call := range completion.ToolCalls {
			invocations++
			result := e.runTool(ctx, turn, toolset, call, sink)

			payload, _ := json.Marshal(result)
			if _, err := e.conversations.SaveMessage(model.Message{
				ConversationID: turn.ConversationID,
				Role:           model.RoleTool,
				Content:        string(payload),
				ToolCallID:     call.ID,
			}); err != nil {
				sink(Event{Type: EventError, Data: err.Error()})
			}
			history = append(history, llm.Message{
				Role:       model.RoleTool,
				Content:    string(payload),
				ToolCallID: call.ID,
			})
			transcript = append(transcript, map[string]interface{}{
				"role": model.RoleTool,
				"tool": call.Function.Name,
			})
		}
	}

	e.record(turn, transcript, invocations, status)
	sink(Event{Type: EventDone, Data: DoneData{
		ConversationID:  turn.ConversationID,
		ToolInvocations: invocations,
		Rounds:          rounds,
	}})
	return nil
}

// assembleTools merges built-ins with the turn's requested registry tools.
// A failed load is surfaced as an error event, not a failed turn.
func (e *Engine) assembleTools(ctx context.Context, turn Turn, sink Sink) map[string]*tools.Tool {
	base := make(map[string]*tools.Tool)
	for _, t := range e.builtins.List() {
		base[t.Name] = t
	}
	if len(turn.ToolRefs) == 0 || e.loader == nil {
		return base
	}

	loaded, errs := e.loader.Load(ctx, turn.ConversationID, turn.ToolRefs)
	for _, loadErr := range errs {
		sink(Event{Type: EventError, Data: loadErr.Error()})
	}
	return toolloader.Merge(base, loaded)
}

func (e *Engine) history(turn Turn) ([]llm.Message, error) {
	stored, err := e.conversations.ListMessages(turn.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	messages := make([]llm.Message, 0, len(stored)+1)
	if turn.Agent.SystemPrompt != "" {
		messages = append(messages, llm.Message{Role: model.RoleSystem, Content: turn.Agent.SystemPrompt})
	}
	for _, m := range stored {
		msg := llm.Message{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		if m.Role == model.RoleAssistant && m.ToolCalls != nil {
			msg.ToolCalls = parseCalls(m.ToolCalls)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (e *Engine) runTool(ctx context.Context, turn Turn, toolset map[string]*tools.Tool, call llm.ToolCall, sink Sink) ToolResultData {
	name := call.Function.Name
	args := map[string]interface{}{}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			result := ToolResultData{ID: call.ID, Name: name, Error: "malformed tool arguments: " + err.Error()}
			sink(Event{Type: EventToolResult, Data: result})
			return result
		}
	}

	sink(Event{Type: EventToolCall, Data: ToolCallData{ID: call.ID, Name: name, Args: args}})

	tool, ok := toolset[name]
	if !ok {
		result := ToolResultData{ID: call.ID, Name: name, Error: fmt.Sprintf("unknown tool %q", name)}
		sink(Event{Type: EventToolResult, Data: result})
		return result
	}

	out, err := tool.Handler(ctx, args)
	result := ToolResultData{ID: call.ID, Name: name, Result: out}
	if err != nil {
		result.Result = nil
		result.Error = err.Error()
	}
	e.logExecute(turn, name, err)
	sink(Event{Type: EventToolResult, Data: result})
	return result
}

func (e *Engine) logExecute(turn Turn, name string, execErr error) {
	if e.audit == nil {
		return
	}
	event := audit.ExecuteEvent{
		UserID:   turn.Agent.UserID,
		AgentID:  turn.Agent.AgentID,
		ClientIP: turn.ClientIP,
		Tool:     name,
		Success:  execErr == nil,
	}
	if execErr != nil {
		event.ErrorMessage = execErr.Error()
	}
	if e.builtins != nil {
		_, event.Builtin = e.builtins.Get(name)
	}
	if !event.Builtin {
		for _, ref := range turn.ToolRefs {
			if ref.Tool == name {
				event.Package = ref.Package
				break
			}
		}
	}
	e.audit.Log(event)
}

func (e *Engine) record(turn Turn, transcript []map[string]interface{}, invocations int, status string) {
	if e.simulations == nil {
		return
	}
	steps := make([]interface{}, len(transcript))
	for i, step := range transcript {
		steps[i] = step
	}
	// Recording is best effort; a failed write never fails the turn.
	_, _ = e.simulations.SaveSimulation(model.Simulation{
		AgentID:         turn.Agent.AgentID,
		ConversationID:  turn.ConversationID,
		Input:           turn.Input,
		Transcript:      model.JSONMap{"steps": steps},
		ToolInvocations: invocations,
		Status:          status,
	})
}

func toolDefs(toolset map[string]*tools.Tool) []llm.ToolDef {
	defs := make([]llm.ToolDef, 0, len(toolset))
	for _, t := range toolset {
		defs = append(defs, llm.ToolDef{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.InputSchema,
		})
	}
	return defs
}

func rawCalls(calls []llm.ToolCall) []interface{} {
	out := make([]interface{}, 0, len(calls))
	for _, c := range calls {
		out = append(out, map[string]interface{}{
			"id":   c.ID,
			"name": c.Function.Name,
			"args": c.Function.Arguments,
		})
	}
	return out
}

func parseCalls(m model.JSONMap) []llm.ToolCall {
	raw, ok := m["calls"].([]interface{})
	if !ok {
		return nil
	}
	calls := make([]llm.ToolCall, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		var call llm.ToolCall
		call.ID, _ = entry["id"].(string)
		call.Type = "function"
		call.Function.Name, _ = entry["name"].(string)
		call.Function.Arguments, _ = entry["args"].(string)
		calls = append(calls, call)
	}
	return calls
}
