package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/roach88/recipeshelf/internal/recipe"
	"github.com/roach88/recipeshelf/internal/reconcile"
)

var (
	favouriteMark = color.New(color.FgYellow, color.Bold).SprintFunc()
	ownedMark     = color.New(color.FgCyan).SprintFunc()
	warnText      = color.New(color.FgRed).SprintFunc()
)

// viewPayload is the JSON shape of a merged view.
type viewPayload struct {
	Recipes     []recipe.Recipe `json:"recipes"`
	Degraded    bool            `json:"degraded"`
	RemoteError string          `json:"remote_error,omitempty"`
}

func newViewPayload(v reconcile.View) viewPayload {
	p := viewPayload{Recipes: v.Recipes, Degraded: v.Degraded()}
	if p.Recipes == nil {
		p.Recipes = []recipe.Recipe{}
	}
	if v.RemoteErr != nil {
		p.RemoteError = v.RemoteErr.Error()
	}
	return p
}

// renderView writes a merged view: a header, one block per recipe, and a
// note when only local data was available.
func renderView(w io.Writer, title string, v reconcile.View) error {
	fmt.Fprintf(w, "%s (%d)\n", title, len(v.Recipes))
	if v.Degraded() {
		fmt.Fprintf(w, "%s\n", warnText("server recipes unavailable; showing your shelf only"))
	}
	if len(v.Recipes) == 0 {
		fmt.Fprintln(w, "  nothing here yet")
		return nil
	}
	for _, r := range v.Recipes {
		renderSummary(w, r)
	}
	return nil
}

// renderSummary writes one recipe as a header line plus its ingredients.
func renderSummary(w io.Writer, r recipe.Recipe) {
	mark := " "
	if r.Favourite() {
		mark = favouriteMark("*")
	}
	line := fmt.Sprintf("%s [%s] %s", mark, r.ID, r.Title)
	if r.IsUserCreated {
		line += " " + ownedMark("(mine)")
	}
	fmt.Fprintln(w, line)
	if len(r.Ingredients) == 0 {
		fmt.Fprintln(w, "    no ingredients listed")
		return
	}
	for _, ing := range r.Ingredients {
		fmt.Fprintf(w, "    - %s\n", formatIngredient(ing))
	}
}

// renderDetail writes every field of one recipe.
func renderDetail(w io.Writer, r recipe.Recipe) error {
	fmt.Fprintf(w, "%s [%s]\n", r.Title, r.ID)
	if r.PrepTime != "" || r.CookTime != "" {
		fmt.Fprintf(w, "prep: %s  cook: %s\n", orDash(r.PrepTime), orDash(r.CookTime))
	}
	if r.ImageURL != "" {
		fmt.Fprintf(w, "image: %s\n", r.ImageURL)
	}
	fmt.Fprintln(w, "\nIngredients:")
	if len(r.Ingredients) == 0 {
		fmt.Fprintln(w, "  no ingredients listed")
	}
	for _, ing := range r.Ingredients {
		fmt.Fprintf(w, "  - %s\n", formatIngredient(ing))
	}
	fmt.Fprintf(w, "\nInstructions:\n%s\n", r.Instructions)
	return nil
}

// renderList writes server recipes one per line.
func renderList(w io.Writer, recipes []recipe.Recipe) error {
	if len(recipes) == 0 {
		fmt.Fprintln(w, "No recipes found.")
		return nil
	}
	for _, r := range recipes {
		fmt.Fprintf(w, "[%s] %s (%d ingredients)\n", r.ID, r.Title, len(r.Ingredients))
	}
	return nil
}

// formatIngredient renders "quantity unit name", skipping empty parts.
func formatIngredient(ing recipe.Ingredient) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{string(ing.Quantity), ing.Unit, ing.Name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
