package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/zombor/bill-scanner/internal/items"
)

const categorizeSystemPrompt = "You are a smart shopping assistant. Your job is to categorize grocery and shopping items accurately."

const categorizePromptTemplate = `The following items were extracted from a shopping bill:
%s

Please categorize each item into one of these categories: Dairy, Snacks, Beverages, Cleaning, Personal Care, Electronics, Groceries, Fruits & Vegetables, Meat & Seafood, Bakery, Frozen Foods, Other.

Also clean up the item names (remove extra spaces, fix spelling if obvious).

Return ONLY a JSON array with this structure:
[
  {"name": "cleaned item name", "quantity": "extracted quantity", "price": price_as_number, "category": "category"}
]

Do not include any explanation, just the JSON array.`

const suggestSystemPrompt = "You are a smart shopping assistant that helps create budget-friendly shopping lists."

const suggestPromptTemplate = `Create a monthly shopping list for a budget of ₹%v.

User's frequently purchased items: %s

Generate a practical shopping list with essential items. Return ONLY a JSON array:
[
  {"name": "item name", "category": "category", "estimated_price": price, "quantity": "qty"}
]

Categories: Dairy, Snacks, Beverages, Cleaning, Personal Care, Groceries, Fruits & Vegetables, Meat & Seafood, Bakery, Frozen Foods.
Keep total under budget. No explanation, just JSON.`

// Gemini implements Categorizer and ListSuggester using Google Gemini
type Gemini struct {
	client    *genai.Client
	modelName string
}

// NewGemini creates a new Gemini client instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client:    client,
		modelName: modelName,
	}, nil
}

// CategorizeItems asks the model to clean up and categorize raw bill items.
func (g *Gemini) CategorizeItems(ctx context.Context, raw []items.RawItem) ([]CategorizedItem, error) {
	encoded, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling items: %w", err)
	}

	text, err := g.generate(ctx, categorizeSystemPrompt, fmt.Sprintf(categorizePromptTemplate, encoded))
	if err != nil {
		return nil, err
	}
	return decodeCategorizedItems(text)
}

// SuggestItems asks the model for a shopping list that fits the budget,
// seeded with the user's frequently purchased items.
func (g *Gemini) SuggestItems(ctx context.Context, frequentItems []string, budget float64) ([]SuggestedItem, error) {
	history := "[]"
	if len(frequentItems) > 0 {
		encoded, err := json.Marshal(frequentItems)
		if err != nil {
			return nil, fmt.Errorf("marshaling history: %w", err)
		}
		history = string(encoded)
	}

	text, err := g.generate(ctx, suggestSystemPrompt, fmt.Sprintf(suggestPromptTemplate, budget, history))
	if err != nil {
		return nil, err
	}
	return decodeSuggestedItems(text)
}

func (g *Gemini) generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}
	return responseText.String(), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
