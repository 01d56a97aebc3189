package selection

import (
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
)

// stageScript runs a javascript expression over the pipeline state. The
// script sees a $ object with proposals, votes and variables and narrows the
// selection by assigning an array of proposal ids to $.selected. Variables
// written by the script are carried to later stages.
func stageScript(ctx *Context, params map[string]any) error {
	expression, _ := params["expression"].(string)
	if len(expression) == 0 {
		return fmt.Errorf("script stage expression can not be empty")
	}

	proposals := make([]map[string]any, 0, len(ctx.Candidates))
	for _, proposal := range ctx.Candidates {
		proposals = append(proposals, map[string]any{
			"id":     proposal.Id,
			"status": string(proposal.Status),
			"data":   proposal.Data,
			"votes":  ctx.Votes.TallyByProposal[proposal.Id],
		})
	}
	doc := map[string]any{
		"proposals":  proposals,
		"voterCount": ctx.Votes.VoterCount,
		"variables":  ctx.Variables,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	vm := goja.New()
	script := fmt.Sprintf("var $ = %s;\n%s", data, expression)
	if _, err := vm.RunString(script); err != nil {
		return fmt.Errorf("error executing javascript %w", err)
	}
	val, err := vm.RunString("$")
	if err != nil {
		return fmt.Errorf("error executing javascript %w", err)
	}
	res, err := json.Marshal(val.Export())
	if err != nil {
		return err
	}
	var output map[string]any
	if err := json.Unmarshal(res, &output); err != nil {
		return err
	}

	if vars, ok := output["variables"].(map[string]any); ok {
		ctx.Variables = vars
	}
	selectedRaw, ok := output["selected"].([]any)
	if !ok {
		// script declined to narrow the selection
		return nil
	}
	selected := make(map[string]bool, len(selectedRaw))
	for _, id := range selectedRaw {
		if s, ok := id.(string); ok {
			selected[s] = true
		}
	}
	kept := ctx.Candidates[:0]
	for _, proposal := range ctx.Candidates {
		if selected[proposal.Id] {
			kept = append(kept, proposal)
		}
	}
	ctx.Candidates = kept
	return nil
}
