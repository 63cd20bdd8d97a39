package assets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"backlot/internal/logging"
	"backlot/internal/plan"
	"backlot/internal/quota"
	"backlot/internal/services"
)

// AssetType distinguishes the two reference images a production needs.
type AssetType string

const (
	TypeCharacter  AssetType = "character"
	TypeBackground AssetType = "background"
)

// AssetSource records whether an asset was generated or supplied by the user.
type AssetSource string

const (
	SourceGenerated AssetSource = "ai"
	SourceUser      AssetSource = "user"
)

// AssetItem is one reference image used to anchor clip generation.
type AssetItem struct {
	ID     string      `json:"id"`
	Type   AssetType   `json:"type"`
	Source AssetSource `json:"source"`
	Data   []byte      `json:"-"`
}

// ImageGenerator produces a reference image, optionally anchored to earlier
// reference images.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, references [][]byte) ([]byte, error)
}

// QuotaGate throttles outbound model calls by category.
type QuotaGate interface {
	Acquire(ctx context.Context, category quota.Category) error
}

// Options configures asset generation. CharacterFile and BackgroundFile,
// when set, are read from disk instead of generated.
type Options struct {
	CharacterFile  string
	BackgroundFile string
}

// Generator produces the character sheet and background plate for a plan.
type Generator struct {
	images ImageGenerator
	gate   QuotaGate
	opts   Options
	logger *slog.Logger
}

// NewGenerator wires an asset generator.
func NewGenerator(images ImageGenerator, gate QuotaGate, opts Options, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{
		images: images,
		gate:   gate,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "assets"),
	}
}

// Generate produces the character asset first, then the background asset
// anchored to it so the two stay visually consistent. User-supplied files
// short-circuit generation for their slot.
func (g *Generator) Generate(ctx context.Context, p *plan.DirectorPlan) ([]AssetItem, error) {
	if p == nil {
		return nil, services.Wrap(services.ErrValidation, "assets", "generate", "plan required", nil)
	}

	character, err := g.produce(ctx, TypeCharacter, g.opts.CharacterFile, characterPrompt(p), nil)
	if err != nil {
		return nil, err
	}
	background, err := g.produce(ctx, TypeBackground, g.opts.BackgroundFile, backgroundPrompt(p), [][]byte{character.Data})
	if err != nil {
		return nil, err
	}
	return []AssetItem{character, background}, nil
}

func (g *Generator) produce(ctx context.Context, kind AssetType, file, prompt string, refs [][]byte) (AssetItem, error) {
	if strings.TrimSpace(file) != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return AssetItem{}, services.Wrap(services.ErrConfiguration, "assets", "load",
				fmt.Sprintf("read %s asset %s", kind, file), err)
		}
		g.logger.Info("using supplied asset",
			logging.String("type", string(kind)),
			logging.String("path", file),
		)
		return AssetItem{ID: uuid.NewString(), Type: kind, Source: SourceUser, Data: data}, nil
	}

	if g.gate != nil {
		if err := g.gate.Acquire(ctx, quota.CategoryImage); err != nil {
			return AssetItem{}, err
		}
	}
	data, err := g.images.GenerateImage(ctx, prompt, refs)
	if err != nil {
		return AssetItem{}, err
	}
	g.logger.Info("asset generated",
		logging.String("type", string(kind)),
		logging.Int("bytes", len(data)),
	)
	return AssetItem{ID: uuid.NewString(), Type: kind, Source: SourceGenerated, Data: data}, nil
}

func characterPrompt(p *plan.DirectorPlan) string {
	return fmt.Sprintf("Full-body character reference sheet, neutral pose, plain background. %s. Style: %s.",
		strings.TrimSpace(p.SubjectPrompt), strings.TrimSpace(p.VisualStyle))
}

func backgroundPrompt(p *plan.DirectorPlan) string {
	return fmt.Sprintf("Empty establishing shot of the environment, no characters. %s. Style: %s. Match the lighting and palette of the reference image.",
		strings.TrimSpace(p.EnvironmentPrompt), strings.TrimSpace(p.VisualStyle))
}
