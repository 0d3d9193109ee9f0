package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roundtable-ai/roundtable/internal/orchestrator"
	"github.com/roundtable-ai/roundtable/internal/types"
)

var (
	chatProject      string
	chatConversation string
	chatUser         string
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send a message and print the persona response",
	Long: `Send one message into a conversation and print the response.

The message is routed to the project's active personas. Depending on how
many personas are relevant and whether their views conflict, the response
is a direct answer, a list of perspectives, or a debate transcript with a
synthesis.

Omit --conversation to start a new conversation; its id is printed so
follow-up messages can continue it.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatProject, "project", "", "Project id (required)")
	chatCmd.Flags().StringVar(&chatConversation, "conversation", "", "Conversation id (new one created when omitted)")
	chatCmd.Flags().StringVar(&chatUser, "user", "", "User id (generated when omitted)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	projectID, err := requireID("project", chatProject)
	if err != nil {
		return err
	}

	conversationID := types.NewID()
	if chatConversation != "" {
		if conversationID, err = types.ParseID(chatConversation); err != nil {
			return err
		}
	} else {
		fmt.Printf("Conversation: %s\n\n", conversationID)
	}

	userID := types.NewID()
	if chatUser != "" {
		if userID, err = types.ParseID(chatUser); err != nil {
			return err
		}
	}

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	payload, err := app.orch.HandleUserMessage(ctx, projectID, conversationID, userID, args[0])
	if err != nil {
		return err
	}

	printPayload(payload)
	return nil
}

func printPayload(p *orchestrator.ResponsePayload) {
	switch p.Kind {
	case orchestrator.KindNoPersona:
		fmt.Println("No advisor had a take on that. Try rephrasing, or create a persona with `roundtable persona create`.")

	case orchestrator.KindSingle:
		fmt.Printf("%s:\n%s\n", p.PersonaName, p.Text)

	case orchestrator.KindMultiPerspective:
		for i, perspective := range p.Perspectives {
			if i > 0 {
				fmt.Println()
			}
			printPerspective(perspective)
		}

	case orchestrator.KindDebate:
		printDebate(p.Debate)
	}
}

func printPerspective(p orchestrator.Perspective) {
	fmt.Printf("%s (confidence %.2f):\n%s\n", p.PersonaName, p.Confidence, p.Position)
	if p.Rationale != "" {
		fmt.Printf("  Rationale: %s\n", p.Rationale)
	}
}

func printDebate(d *orchestrator.DebateResult) {
	fmt.Println("Your advisors disagree.")
	fmt.Println()

	fmt.Println("Positions:")
	for _, perspective := range d.Transcript.Perspectives {
		fmt.Println()
		printPerspective(perspective)
	}

	if len(d.Transcript.Rebuttals) > 0 {
		fmt.Println()
		fmt.Println("Rebuttals:")
		for _, rebuttal := range d.Transcript.Rebuttals {
			fmt.Printf("\n%s:\n%s\n", rebuttal.PersonaName, rebuttal.Content)
		}
	}

	fmt.Println()
	fmt.Println(strings.Repeat("-", 40))
	if d.Synthesis == nil {
		fmt.Println("No synthesis is available; the decision is yours.")
		return
	}

	fmt.Printf("Synthesis: %s\n", d.Synthesis.Summary)
	if d.Synthesis.Tradeoffs != "" {
		fmt.Printf("Tradeoffs: %s\n", d.Synthesis.Tradeoffs)
	}
	fmt.Printf("Recommendation: %s\n", d.Synthesis.Recommendation)
	if d.Synthesis.Rationale != "" {
		fmt.Printf("Rationale: %s\n", d.Synthesis.Rationale)
	}
}
