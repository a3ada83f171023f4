package tools

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChamsBouzaiene/chatagent/internal/engine"
	"github.com/ChamsBouzaiene/chatagent/internal/tools/media"
	"github.com/ChamsBouzaiene/chatagent/internal/tools/memory"
	"github.com/ChamsBouzaiene/chatagent/internal/tools/search"
	"github.com/ChamsBouzaiene/chatagent/internal/tools/utility"
)

// Deps are the collaborators the built-in tools need.
type Deps struct {
	Memory    memory.Writer
	Knowledge search.Retriever
	Web       search.WebConfig
	// Clock overrides time.Now for DateTime.
	Clock func() time.Time
	// MCP tools are registered after the built-ins regardless of the set.
	MCP []engine.Tool
}

// NewToolRegistry builds a registry holding the tools enabled in set, in the
// order they are listed to the model.
func NewToolRegistry(deps Deps, set engine.ToolSet, policy engine.OverwritePolicy, logger zerolog.Logger) (*engine.Registry, error) {
	reg := engine.NewRegistry(policy, logger)

	var searchTool engine.Tool
	if set.Knowledge || set.Research {
		if deps.Knowledge == nil {
			return nil, errors.New("knowledge tools enabled without a knowledge index")
		}
		searchTool = search.NewSearchTool(deps.Knowledge)
	}

	var list []engine.Tool
	if set.Knowledge {
		list = append(list, searchTool)
	}
	if set.Memory {
		if deps.Memory == nil {
			return nil, errors.New("memory tools enabled without a memory store")
		}
		list = append(list, memory.NewRememberTool(deps.Memory))
	}
	if set.Utility {
		list = append(list,
			utility.NewCalculatorTool(),
			utility.NewWeatherTool(nil),
			utility.NewDateTimeTool(deps.Clock),
			utility.NewTranslatorTool(),
		)
	}
	if set.Media {
		list = append(list, media.NewImageGenTool())
	}
	if set.Research {
		list = append(list, search.NewDeepResearchTool(searchTool))
	}
	if set.Web {
		list = append(list, search.NewWebSearchTool(deps.Web))
	}
	list = append(list, deps.MCP...)

	if err := reg.RegisterAll(list...); err != nil {
		return nil, err
	}
	return reg, nil
}
