package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"go.uber.org/zap"
)

const (
	schemaDirective = "You are a strict JSON generator. Output MUST be valid JSON conforming to this schema, " +
		"and must NOT be wrapped in markdown fences or accompanied by any other text.\nSchema: "
	repairDirective = "The JSON is invalid or doesn't match the schema. Fix it and return ONLY the corrected JSON."
)

// Caller is the chat path shared by the generator and plain-text workflows
type Caller interface {
	Invoke(ctx context.Context, messages []Message, opts Options) (string, error)
}

// Generator produces schema-conforming results from the backend with a
// single repair pass on invalid output.
type Generator struct {
	caller   Caller
	validate *validator.Validate
	opts     Options
	log      *zap.Logger
}

// GeneratorOption customizes the generator
type GeneratorOption func(*Generator)

// WithGenerationOptions sets the completion options used for structured calls
func WithGenerationOptions(opts Options) GeneratorOption {
	return func(g *Generator) {
		g.opts = opts
	}
}

// WithGeneratorLogger sets the generator logger
func WithGeneratorLogger(log *zap.Logger) GeneratorOption {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// WithValidator replaces the struct validator used after schema checks
func WithValidator(v *validator.Validate) GeneratorOption {
	return func(g *Generator) {
		if v != nil {
			g.validate = v
		}
	}
}

// NewGenerator creates a structured generator on top of caller
func NewGenerator(caller Caller, opts ...GeneratorOption) *Generator {
	g := &Generator{
		caller:   caller,
		validate: NewValidator(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Checker is implemented by results whose binding rules depend on their own
// content. It replaces the plain struct validation for that result.
type Checker interface {
	Check(v *validator.Validate) error
}

// RegisterValidations adds the rules recipe payloads rely on beyond the
// validator built-ins. It is shared with gin's binding engine.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("notblank", validators.NotBlank)
}

// NewValidator returns a validator reading the same "binding" tags gin uses,
// reporting fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Generate asks the backend for a result matching schema and decodes it
// into T. Invalid output gets exactly one repair call; if that is still
// invalid a *SchemaViolation is returned. Backend errors pass through.
func Generate[T any](ctx context.Context, g *Generator, messages []Message, schema Schema) (T, error) {
	var zero T

	convo := make([]Message, 0, len(messages)+3)
	convo = append(convo, messages...)
	convo = append(convo, System(schemaDirective+schema.Describe()))

	raw, err := g.caller.Invoke(ctx, convo, g.opts)
	if err != nil {
		return zero, err
	}
	out, problems := decodeResult[T](g, schema, raw)
	if len(problems) == 0 {
		return out, nil
	}

	g.log.Warn("structured output invalid, requesting repair",
		zap.Int("problems", len(problems)),
		zap.String("first", problems[0]))
	StatsFromContext(ctx).addRepair()

	convo = append(convo, Assistant(raw), User(repairDirective))
	repaired, err := g.caller.Invoke(ctx, convo, g.opts)
	if err != nil {
		return zero, err
	}
	out, problems = decodeResult[T](g, schema, repaired)
	if len(problems) == 0 {
		return out, nil
	}
	return zero, &SchemaViolation{RawText: repaired, ValidationErrors: problems}
}

func decodeResult[T any](g *Generator, schema Schema, raw string) (T, []string) {
	var out T
	text := extractJSON(raw)
	doc, err := decodeDocument(text)
	if err != nil {
		return out, []string{fmt.Sprintf("$: invalid JSON: %v", err)}
	}
	if problems := schema.Validate(doc); len(problems) > 0 {
		return out, problems
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return out, []string{fmt.Sprintf("$: %v", err)}
	}
	return out, g.structProblems(out)
}

// structProblems applies binding-tag rules to decoded structs. Non-struct
// results have no tag rules and always pass.
func (g *Generator) structProblems(v any) []string {
	var err error
	if c, ok := v.(Checker); ok {
		err = c.Check(g.validate)
	} else if reflect.Indirect(reflect.ValueOf(v)).Kind() == reflect.Struct {
		err = g.validate.Struct(v)
	}
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := fe.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		problems = append(problems, fmt.Sprintf("$.%s: failed %s", path, rule))
	}
	return problems
}
