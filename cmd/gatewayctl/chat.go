package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pageza/alchemorsel-v2/gateway/internal/types"
)

type chatOptions struct {
	server     string
	token      string
	recipeFile string
	allergies  []string
	diets      []string
	rejected   []string
	timeout    time.Duration
}

func newChatCommand(opts *rootOptions) *cobra.Command {
	chat := &chatOptions{}
	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send one chat turn to a running gateway",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := types.ChatRequest{
				Message: strings.Join(args, " "),
				Profile: types.Profile{Allergies: chat.allergies, Diets: chat.diets},
				History: chat.rejected,
			}
			if chat.recipeFile != "" {
				recipe, err := readRecipe(chat.recipeFile)
				if err != nil {
					return err
				}
				req.Recipe = recipe
			}

			resp, err := chat.send(cmd, req)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd, resp)
			}
			printChatResponse(cmd, resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&chat.server, "server", envDefault("GATEWAY_URL", "http://localhost:8080"), "Gateway base URL")
	cmd.Flags().StringVar(&chat.token, "token", envDefault("GATEWAY_TOKEN", ""), "Bearer token")
	cmd.Flags().StringVar(&chat.recipeFile, "recipe", "", "JSON file holding the recipe under discussion")
	cmd.Flags().StringSliceVar(&chat.allergies, "allergy", nil, "Profile allergies")
	cmd.Flags().StringSliceVar(&chat.diets, "diet", nil, "Profile diets")
	cmd.Flags().StringSliceVar(&chat.rejected, "rejected", nil, "Titles of previously rejected suggestions")
	cmd.Flags().DurationVar(&chat.timeout, "timeout", 3*time.Minute, "Request timeout")
	return cmd
}

func readRecipe(path string) (*types.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}
	var recipe types.Recipe
	if err := json.Unmarshal(data, &recipe); err != nil {
		return nil, fmt.Errorf("failed to parse recipe: %w", err)
	}
	return &recipe, nil
}

func (o *chatOptions) send(cmd *cobra.Command, req types.ChatRequest) (*types.ChatResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, strings.TrimRight(o.server, "/")+"/api/v1/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.token)
	}

	client := &http.Client{Timeout: o.timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Intent string `json:"intent"`
			Error  string `json:"error"`
		}
		if json.Unmarshal(body, &failure) == nil && failure.Error != "" {
			return nil, fmt.Errorf("gateway returned %d (%s): %s", resp.StatusCode, failure.Intent, failure.Error)
		}
		return nil, fmt.Errorf("gateway returned %d", resp.StatusCode)
	}

	var out types.ChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return &out, nil
}

func printChatResponse(cmd *cobra.Command, resp *types.ChatResponse) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "[%s] %s\n", resp.Intent, resp.ResponseText)
	if resp.Error != "" {
		fmt.Fprintf(out, "error: %s\n", resp.Error)
	}

	if len(resp.Suggestions) > 0 {
		rows := make([][]string, 0, len(resp.Suggestions))
		for _, r := range resp.Suggestions {
			rows = append(rows, []string{r.Title, strconv.Itoa(r.TotalTimeMinutes), strconv.Itoa(r.Servings), r.Description})
		}
		fmt.Fprintln(out, renderTable([]string{"Title", "Minutes", "Servings", "Description"}, rows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft}))
	}

	if resp.NewRecipe != nil && resp.Error == "" {
		rows := make([][]string, 0, len(resp.NewRecipe.Ingredients))
		for _, ing := range resp.NewRecipe.Ingredients {
			rows = append(rows, []string{ing.Name, strconv.FormatFloat(ing.Quantity, 'f', -1, 64), ing.Unit})
		}
		fmt.Fprintln(out, resp.NewRecipe.Title)
		fmt.Fprintln(out, renderTable([]string{"Ingredient", "Qty", "Unit"}, rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft}))
	}

	if len(resp.GroceryList) > 0 {
		rows := make([][]string, 0, len(resp.GroceryList))
		for _, item := range resp.GroceryList {
			note := ""
			if item.UnitConflict {
				note = "unit conflict"
			}
			rows = append(rows, []string{item.Name, strconv.FormatFloat(item.Quantity, 'f', -1, 64), item.Unit, note})
		}
		fmt.Fprintln(out, renderTable([]string{"Item", "Qty", "Unit", "Note"}, rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft}))
	}
}
