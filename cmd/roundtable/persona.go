package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roundtable-ai/roundtable/internal/persona"
	"github.com/roundtable-ai/roundtable/internal/types"
)

var (
	personaProject string
	personaName    string
)

var personaCmd = &cobra.Command{
	Use:   "persona",
	Short: "Manage advisor personas",
}

var personaCreateCmd = &cobra.Command{
	Use:   "create <description>",
	Short: "Create a custom persona from a free-text description",
	Long: `Create a custom persona from a free-text description.

The description is turned into a structured persona definition (name,
archetype, expertise, communication preferences). The original description
is always preserved verbatim as custom instructions, so nothing you wrote
is lost even when extraction is imperfect.

Example:
  roundtable persona create --project <id> \
    "A blunt former CFO who pushes back on any spend without a payback model"`,
	Args: cobra.ExactArgs(1),
	RunE: runPersonaCreate,
}

var personaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a project's active personas",
	RunE:  runPersonaList,
}

var personaAddCmd = &cobra.Command{
	Use:   "add <archetype>",
	Short: "Add a preset persona (coach, advisor, strategist, partner, manager, coordinator)",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonaAdd,
}

var personaDeactivateCmd = &cobra.Command{
	Use:   "deactivate <persona-id>",
	Short: "Deactivate a persona (its history is kept)",
	Args:  cobra.ExactArgs(1),
	RunE:  runPersonaDeactivate,
}

func init() {
	personaCmd.PersistentFlags().StringVar(&personaProject, "project", "", "Project id (required)")
	personaAddCmd.Flags().StringVar(&personaName, "name", "", "Display name (defaults to the archetype name)")
	personaCmd.AddCommand(personaCreateCmd, personaListCmd, personaAddCmd, personaDeactivateCmd)
	rootCmd.AddCommand(personaCmd)
}

func runPersonaCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	projectID, err := requireID("project", personaProject)
	if err != nil {
		return err
	}

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	created, err := app.orch.CreateCustomPersona(ctx, projectID, types.NewID(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Created %s (%s)\n", created.DisplayName, created.Archetype)
	fmt.Printf("  ID: %s\n", created.ID)
	if created.Specialization != "" {
		fmt.Printf("  Specialization: %s\n", created.Specialization)
	}
	return nil
}

func runPersonaList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	projectID, err := requireID("project", personaProject)
	if err != nil {
		return err
	}

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	active, err := app.personas.ListActive(ctx, projectID)
	if err != nil {
		return err
	}
	if len(active) == 0 {
		fmt.Println("No active personas. Add one with `roundtable persona add` or `roundtable persona create`.")
		return nil
	}

	for _, p := range active {
		fmt.Printf("%s  %-20s %s", p.ID, p.DisplayName, p.Archetype)
		if p.Specialization != "" {
			fmt.Printf(" (%s)", p.Specialization)
		}
		fmt.Println()
	}
	return nil
}

func runPersonaAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	projectID, err := requireID("project", personaProject)
	if err != nil {
		return err
	}

	archetype := persona.Archetype(args[0])
	if !archetype.IsValid() || archetype == persona.ArchetypeCustom {
		return fmt.Errorf("unknown archetype %q (use `persona create` for custom personas)", args[0])
	}

	name := personaName
	if name == "" {
		name = archetype.String()
	}

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	p := persona.New(projectID, archetype, name)
	if err := app.personas.Save(ctx, p); err != nil {
		return err
	}

	fmt.Printf("Created %s (%s)\n", p.DisplayName, p.Archetype)
	fmt.Printf("  ID: %s\n", p.ID)
	return nil
}

func runPersonaDeactivate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := types.ParseID(args[0])
	if err != nil {
		return err
	}

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.personas.Deactivate(ctx, id); err != nil {
		return err
	}

	fmt.Printf("Deactivated %s\n", id)
	return nil
}
