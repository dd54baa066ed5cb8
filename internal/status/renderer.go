package status

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/temirov/workspace/internal/repos/shared"
)

const (
	headerTextConstant             = "Workspace Status"
	noWorkspacesTextConstant       = "No workspaces found"
	workspaceLineTemplateConstant  = "%s:\n"
	repositoryLineTemplateConstant = "  %s: %s\n"
	refLineTemplateConstant        = "%s %s"
	cleanMarkerConstant            = "[clean]"
	modifiedMarkerConstant         = "[modified]"
	missingMarkerConstant          = "[missing]"
	brokenMarkerTemplateConstant   = "[broken: %s]"
	errorMarkerTemplateConstant    = "[error: %s]"
	unconfiguredSuffixConstant     = " (not configured)"
	workspaceErrorTemplateConstant = "  %s\n"
)

// Renderer writes status reports as indented text with coloured markers.
type Renderer struct {
	header   *color.Color
	clean    *color.Color
	modified *color.Color
	broken   *color.Color
	missing  *color.Color
}

// NewRenderer constructs a Renderer. Colours are emitted only when colorize is true.
func NewRenderer(colorize bool) Renderer {
	renderer := Renderer{
		header:   color.New(color.Bold),
		clean:    color.New(color.FgGreen),
		modified: color.New(color.FgYellow),
		broken:   color.New(color.FgRed, color.Bold),
		missing:  color.New(color.FgHiBlack),
	}
	for _, palette := range []*color.Color{renderer.header, renderer.clean, renderer.modified, renderer.broken, renderer.missing} {
		if colorize {
			palette.EnableColor()
		} else {
			palette.DisableColor()
		}
	}
	return renderer
}

// Render writes statuses to writer.
func (renderer Renderer) Render(writer io.Writer, statuses []WorkspaceStatus) error {
	if _, writeError := fmt.Fprintln(writer, renderer.header.Sprint(headerTextConstant)); writeError != nil {
		return writeError
	}
	if len(statuses) == 0 {
		_, writeError := fmt.Fprintln(writer, noWorkspacesTextConstant)
		return writeError
	}

	for _, workspaceStatus := range statuses {
		if _, writeError := fmt.Fprintf(writer, workspaceLineTemplateConstant, workspaceStatus.Name); writeError != nil {
			return writeError
		}
		if workspaceStatus.Err != nil {
			if _, writeError := fmt.Fprintf(writer, workspaceErrorTemplateConstant, renderer.broken.Sprintf(errorMarkerTemplateConstant, workspaceStatus.Err)); writeError != nil {
				return writeError
			}
		}
		for _, repositoryStatus := range workspaceStatus.Repositories {
			if _, writeError := fmt.Fprintf(writer, repositoryLineTemplateConstant, repositoryStatus.Name, renderer.describe(repositoryStatus)); writeError != nil {
				return writeError
			}
		}
	}
	return nil
}

func (renderer Renderer) describe(repositoryStatus RepositoryStatus) string {
	var description string
	switch {
	case repositoryStatus.Err != nil:
		description = renderer.broken.Sprintf(errorMarkerTemplateConstant, repositoryStatus.Err)
	case repositoryStatus.State == shared.CheckoutAbsent:
		description = renderer.missing.Sprint(missingMarkerConstant)
	case repositoryStatus.State == shared.CheckoutBroken:
		description = renderer.broken.Sprintf(brokenMarkerTemplateConstant, repositoryStatus.BrokenReason)
	case repositoryStatus.Dirty:
		description = fmt.Sprintf(refLineTemplateConstant, repositoryStatus.RefLabel, renderer.modified.Sprint(modifiedMarkerConstant))
	default:
		description = fmt.Sprintf(refLineTemplateConstant, repositoryStatus.RefLabel, renderer.clean.Sprint(cleanMarkerConstant))
	}
	if !repositoryStatus.Configured {
		description += unconfiguredSuffixConstant
	}
	return description
}
