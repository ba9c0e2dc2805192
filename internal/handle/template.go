package handle

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aescanero/dago-node-fields/internal/eval/template"
	"github.com/aescanero/dago-node-fields/internal/inventory"
	"github.com/aescanero/dago-node-fields/internal/playbook"
	"github.com/aescanero/dago-node-fields/internal/screen"
	"github.com/aescanero/dago-node-fields/internal/tasks"
)

// Local asset directories, relative to the working directory
const (
	TemplatesDir = "templates"
	FilesDir     = "files"
)

// Template resolves raw task field values into safe, typed values for one
// task on one host. Every failure is returned as a *tasks.TaskResponse.
type Template struct {
	runState   *playbook.RunState
	host       *inventory.Host
	response   FailureReporter
	syntaxOnly bool
}

// NewTemplate creates an accessor. The syntax-only flag is read once here and
// holds for the accessor's lifetime.
func NewTemplate(runState *playbook.RunState, host *inventory.Host, response FailureReporter) *Template {
	return &Template{
		runState:   runState,
		host:       host,
		response:   response,
		syntaxOnly: runState.IsSyntaxOnly(),
	}
}

// GetContext returns the shared playbook context
func (t *Template) GetContext() *playbook.Context {
	return t.runState.Context
}

// GetRunState returns the shared run state
func (t *Template) GetRunState() *playbook.RunState {
	return t.runState
}

func (t *Template) fail(request *tasks.TaskRequest, msg string) error {
	return t.response.IsFailed(request, msg)
}

func containsVars(input string) bool {
	return strings.Contains(input, template.Marker)
}

// skipEval reports whether real evaluation is bypassed for a templated value
// during a syntax-only run.
func (t *Template) skipEval(raw string) bool {
	return t.syntaxOnly && containsVars(raw)
}

func (t *Template) skipEvalOption(raw *string) bool {
	return raw != nil && t.skipEval(*raw)
}

func (t *Template) render(request *tasks.TaskRequest, raw string, blend playbook.BlendTarget) (string, error) {
	if t.skipEval(raw) {
		return "", nil
	}
	// Paths go through Path or the Find*Path lookups, never through here.
	result, err := t.runState.Context.RenderTemplate(raw, t.host, blend)
	if err != nil {
		return "", t.fail(request, err.Error())
	}
	if result == "" {
		return "", t.fail(request, "evaluated to empty string")
	}
	return result, nil
}

// StringForTemplateModuleUseOnly renders with the template module's scope.
// Only the template module may call it.
func (t *Template) StringForTemplateModuleUseOnly(request *tasks.TaskRequest, field string, raw string) (string, error) {
	return t.render(request, raw, playbook.TemplateModule)
}

// StringUnsafe renders without input screening. Callers must apply their own
// stricter checks before the value reaches a shell or filesystem.
func (t *Template) StringUnsafe(request *tasks.TaskRequest, field string, raw string) (string, error) {
	return t.render(request, raw, playbook.NotTemplateModule)
}

// String renders and screens a field. Use it for anything that may reach a
// shell or external process.
func (t *Template) String(request *tasks.TaskRequest, field string, raw string) (string, error) {
	if t.skipEval(raw) {
		return "", nil
	}
	value, err := t.StringUnsafe(request, field, raw)
	if err != nil {
		return "", err
	}
	screened, err := screen.GeneralInputStrict(value)
	if err != nil {
		return "", t.fail(request, fmt.Sprintf("field %s, %v", field, err))
	}
	return screened, nil
}

// StringNoSpaces is String that also rejects spaces
func (t *Template) StringNoSpaces(request *tasks.TaskRequest, field string, raw string) (string, error) {
	value, err := t.String(request, field, raw)
	if err != nil {
		return "", err
	}
	if HasSpaces(value) {
		return "", t.fail(request, fmt.Sprintf("field (%s): spaces are not allowed", field))
	}
	return value, nil
}

// StringOption is String for optional fields. A templated value skipped in a
// syntax-only run yields a pointer to "" rather than nil.
func (t *Template) StringOption(request *tasks.TaskRequest, field string, raw *string) (*string, error) {
	if t.skipEvalOption(raw) {
		return ptr(""), nil
	}
	if raw == nil {
		return nil, nil
	}
	value, err := t.String(request, field, *raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// StringOptionUnsafe is StringUnsafe for optional fields
func (t *Template) StringOptionUnsafe(request *tasks.TaskRequest, field string, raw *string) (*string, error) {
	if t.skipEvalOption(raw) {
		return ptr(""), nil
	}
	if raw == nil {
		return nil, nil
	}
	value, err := t.StringUnsafe(request, field, *raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// StringOptionNoSpaces is StringOption that also rejects spaces when present
func (t *Template) StringOptionNoSpaces(request *tasks.TaskRequest, field string, raw *string) (*string, error) {
	value, err := t.StringOption(request, field, raw)
	if err != nil {
		return nil, err
	}
	if value != nil && HasSpaces(*value) {
		return nil, t.fail(request, fmt.Sprintf("field (%s): spaces are not allowed", field))
	}
	return value, nil
}

// NoTemplateStringOptionTrim trims an optional value without rendering it.
// Used for fields evaluated later, such as conditions.
func (t *Template) NoTemplateStringOptionTrim(raw *string) *string {
	if raw == nil {
		return nil
	}
	return ptr(strings.TrimSpace(*raw))
}

// Path renders a field naming a path that need not exist locally and applies
// path screening. It never touches the filesystem.
func (t *Template) Path(request *tasks.TaskRequest, field string, raw string) (string, error) {
	if t.skipEval(raw) {
		return "", nil
	}
	rendered, err := t.runState.Context.RenderTemplate(raw, t.host, playbook.NotTemplateModule)
	if err != nil {
		return "", t.fail(request, err.Error())
	}
	screened, err := screen.Path(rendered)
	if err != nil {
		return "", t.fail(request, fmt.Sprintf("%v, for field %s", err, field))
	}
	return screened, nil
}

// Integer renders and parses a signed 64-bit integer
func (t *Template) Integer(request *tasks.TaskRequest, field string, raw string) (int64, error) {
	if t.skipEval(raw) {
		return 0, nil
	}
	value, err := t.String(request, field, raw)
	if err != nil {
		return 0, err
	}
	return t.parseInteger(request, field, value)
}

// IntegerOption is Integer for optional fields. A skipped value yields a
// pointer to 0.
func (t *Template) IntegerOption(request *tasks.TaskRequest, field string, raw *string) (*int64, error) {
	if t.skipEvalOption(raw) {
		return ptr(int64(0)), nil
	}
	if raw == nil {
		return nil, nil
	}
	value, err := t.String(request, field, *raw)
	if err != nil {
		return nil, err
	}
	num, err := t.parseInteger(request, field, value)
	if err != nil {
		return nil, err
	}
	return &num, nil
}

func (t *Template) parseInteger(request *tasks.TaskRequest, field string, value string) (int64, error) {
	num, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, t.fail(request, fmt.Sprintf("field (%s) value is not an integer: %s", field, value))
	}
	return num, nil
}

// Boolean renders and parses exactly "true" or "false"
func (t *Template) Boolean(request *tasks.TaskRequest, field string, raw string) (bool, error) {
	if t.skipEval(raw) {
		return false, nil
	}
	value, err := t.String(request, field, raw)
	if err != nil {
		return false, err
	}
	return t.parseBoolean(request, field, value)
}

// BooleanOptionDefaultTrue is an optional boolean that defaults to true
func (t *Template) BooleanOptionDefaultTrue(request *tasks.TaskRequest, field string, raw *string) (bool, error) {
	return t.booleanOption(request, field, raw, true)
}

// BooleanOptionDefaultFalse is an optional boolean that defaults to false
func (t *Template) BooleanOptionDefaultFalse(request *tasks.TaskRequest, field string, raw *string) (bool, error) {
	return t.booleanOption(request, field, raw, false)
}

func (t *Template) booleanOption(request *tasks.TaskRequest, field string, raw *string, defaultValue bool) (bool, error) {
	if raw == nil || t.skipEvalOption(raw) {
		return defaultValue, nil
	}
	value, err := t.String(request, field, *raw)
	if err != nil {
		return false, err
	}
	return t.parseBoolean(request, field, value)
}

// BooleanOptionDefaultNone is an optional boolean that stays nil when absent
// or skipped
func (t *Template) BooleanOptionDefaultNone(request *tasks.TaskRequest, field string, raw *string) (*bool, error) {
	if raw == nil || t.skipEvalOption(raw) {
		return nil, nil
	}
	value, err := t.String(request, field, *raw)
	if err != nil {
		return nil, err
	}
	parsed, err := t.parseBoolean(request, field, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (t *Template) parseBoolean(request *tasks.TaskRequest, field string, value string) (bool, error) {
	switch value {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, t.fail(request, fmt.Sprintf("field (%s) value is not a boolean: %s", field, value))
	}
}

// TestCond evaluates a conditional against the host. A templated condition in
// a syntax-only run is treated as satisfied so traversal can continue.
func (t *Template) TestCond(request *tasks.TaskRequest, expr string) (bool, error) {
	if t.skipEval(expr) {
		return true, nil
	}
	matched, err := t.runState.Context.TestCond(expr, t.host)
	if err != nil {
		return false, t.fail(request, err.Error())
	}
	return matched, nil
}

// FindTemplatePath locates a template source on the control node
func (t *Template) FindTemplatePath(request *tasks.TaskRequest, field string, strPath string) (string, error) {
	return t.findSubPath(TemplatesDir, request, field, strPath)
}

// FindFilePath locates a file source on the control node
func (t *Template) FindFilePath(request *tasks.TaskRequest, field string, strPath string) (string, error) {
	return t.findSubPath(FilesDir, request, field, strPath)
}

// findSubPath resolves relative paths under prefix. Absolute paths are
// trusted once screened and are not confined to prefix.
func (t *Template) findSubPath(prefix string, request *tasks.TaskRequest, field string, strPath string) (string, error) {
	if t.skipEval(strPath) {
		return "", nil
	}
	screened, err := screen.Path(strPath)
	if err != nil {
		return "", t.fail(request, fmt.Sprintf("%v, for field: %s", err, field))
	}

	path := screened
	if !filepath.IsAbs(path) {
		path = filepath.Join(prefix, screened)
	}
	if !t.isFile(path) {
		return "", t.fail(request, fmt.Sprintf("field (%s): no such file: %s", field, strPath))
	}
	return path, nil
}

func (t *Template) isFile(path string) bool {
	info, err := t.runState.Fs.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// HasSpaces reports whether the value contains a space
func HasSpaces(input string) bool {
	return strings.Contains(input, " ")
}

func ptr[T any](v T) *T {
	return &v
}
