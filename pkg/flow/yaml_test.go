package flow_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maitre-bot/maitre/pkg/domain"
	"github.com/maitre-bot/maitre/pkg/flow"
)

const sampleFlow = `
states:
  - id: INIT
    template:
      kind: button
      body: "Welcome!"
      options:
        - label: "Start"
          token: "go"
    next:
      go: LEGAL_ID

  - id: LEGAL_ID
    prompt: "Legal ID of {companyName}?"
    validator:
      legalId: digits(9)
    validation_message: "Exactly 9 digits, please."
    callback: set_legal_id
    next:
      ok: CATEGORIES

  - id: CATEGORIES
    prompt: "Which categories?"
    extraction:
      instruction: "Extract category names."
      schema:
        category: "[string]"
    skippable: true
    next:
      aiValid: DONE
      skip: DONE

  - id: DONE
    prompt: "All set."
    action: COMPLETE_ONBOARDING
`

func TestParse(t *testing.T) {
	states, err := flow.Parse([]byte(sampleFlow))
	require.NoError(t, err)
	require.Len(t, states, 4)

	init := states[0]
	require.NotNil(t, init.Template)
	assert.Equal(t, domain.TemplateButton, init.Template.Kind)
	require.Len(t, init.Template.Options, 1)
	assert.Equal(t, domain.Token("go"), init.Template.Options[0].Token)
	assert.Equal(t, "LEGAL_ID", init.Next[domain.Token("go")])

	legal := states[1]
	assert.Equal(t, "Legal ID of {companyName}?", legal.Prompt)
	assert.Equal(t, "set_legal_id", legal.Callback)
	require.Contains(t, legal.Validator, "legalId")
	assert.NoError(t, legal.Validator["legalId"].Validate("123456789"))
	assert.Error(t, legal.Validator["legalId"].Validate("abc"))

	categories := states[2]
	require.NotNil(t, categories.Extraction)
	assert.True(t, categories.Skippable)
	assert.NoError(t, categories.Extraction.Schema["category"].Validate([]any{"fish"}))

	done := states[3]
	assert.Equal(t, "COMPLETE_ONBOARDING", done.Action)
	assert.True(t, done.IsTerminal())
}

func TestParse_InvalidSchema(t *testing.T) {
	_, err := flow.Parse([]byte(`
states:
  - id: A
    prompt: "a"
    validator:
      x: made_up_type
`))
	assert.ErrorContains(t, err, "invalid validator")
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "10-flow.yaml"), []byte(sampleFlow), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20-extra.yml"), []byte(`
states:
  - id: EXTRA
    prompt: "extra"
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("not yaml"), 0o644))

	table, err := flow.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 5, table.Len())
	assert.True(t, table.Has("INIT"))
	assert.True(t, table.Has("EXTRA"))

	// The combined table is coherent enough to validate.
	assert.NoError(t, table.Validate(nil))
}

func TestLoadDir_Empty(t *testing.T) {
	_, err := flow.LoadDir(t.TempDir())
	assert.ErrorContains(t, err, "no flow files")
}
