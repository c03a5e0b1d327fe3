package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xiaot623/bookchat/domain"
)

// Client calls an OpenAI-compatible chat completion endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a new language service client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   "gemini-2.5-flash",
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ensure Client implements LanguageService.
var _ LanguageService = (*Client)(nil)

// chatCompletionRequest is the OpenAI chat completion request body.
type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

// chatMessage is one chat turn in the request.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionResponse is the subset of the response we consume.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// errorResponse is the API error envelope.
type errorResponse struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// complete sends a single-prompt completion and returns the text.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(&chatCompletionRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != nil {
			return "", fmt.Errorf("LLM API error [%d]: %s (type: %s)", resp.StatusCode, errResp.Error.Message, errResp.Error.Type)
		}
		return "", fmt.Errorf("LLM API error [%d]: %s", resp.StatusCode, string(respBody))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

// formatHistory renders turns for prompt context.
func formatHistory(history []domain.Turn) string {
	lines := make([]string, 0, len(history))
	for _, t := range history {
		lines = append(lines, t.Role+": "+t.Text)
	}
	return strings.Join(lines, "\n")
}

// stripCodeFence removes ```json / ```sql fences the model likes to add.
func stripCodeFence(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// ClassifyIntent asks for a single intent token.
func (c *Client) ClassifyIntent(ctx context.Context, text string, history []domain.Turn) (domain.Intent, error) {
	prompt := fmt.Sprintf(`Dựa vào lịch sử trò chuyện và tin nhắn mới nhất của người dùng, hãy phân loại ý định của họ thành một trong các loại sau:
'chitchat', 'query_books', 'order_book', 'confirm_order', 'cancel_order', 'edit_order', 'reconsider_order'.
Chỉ trả về MỘT TỪ duy nhất là tên của ý định.
Lịch sử trò chuyện:
%s
Tin nhắn mới nhất của người dùng: %q`, formatHistory(history), text)

	out, err := c.complete(ctx, prompt)
	if err != nil {
		return domain.IntentUnknown, err
	}
	return domain.ParseIntent(out), nil
}

// ExtractBookFilter asks for a structured catalog filter as JSON.
func (c *Client) ExtractBookFilter(ctx context.Context, text string, history []domain.Turn) (domain.BookFilter, error) {
	prompt := fmt.Sprintf(`Bạn là trợ lý tra cứu kho sách. Dựa vào câu hỏi và lịch sử, hãy trích xuất bộ lọc tìm sách và trả về JSON với các trường:
- title (string hoặc null)
- author (string hoặc null)
- category (string hoặc null)
- max_price (number hoặc null)
Nếu thấy người dùng gõ sai chính tả, hãy giữ nguyên từ khóa gần đúng nhất.
Lịch sử trò chuyện:
%s
Câu hỏi của người dùng: %q
JSON:`, formatHistory(history), text)

	out, err := c.complete(ctx, prompt)
	if err != nil {
		return domain.BookFilter{}, err
	}

	var filter domain.BookFilter
	if err := json.Unmarshal([]byte(stripCodeFence(out)), &filter); err != nil {
		return domain.BookFilter{}, fmt.Errorf("failed to parse filter JSON: %w", err)
	}
	return filter, nil
}

// rawOrderFields tolerates quantities coming back as numbers or words.
type rawOrderFields struct {
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Books        []struct {
		Title    string          `json:"title"`
		Quantity json.RawMessage `json:"quantity"`
	} `json:"books"`
}

// ExtractOrderFields asks for structured order information as JSON.
func (c *Client) ExtractOrderFields(ctx context.Context, text string, history []domain.Turn, lastLookup *domain.LookupResult) (*domain.OrderFields, error) {
	lookupJSON := "Không có"
	if lastLookup != nil {
		if b, err := json.Marshal(lastLookup); err == nil {
			lookupJSON = string(b)
		}
	}

	prompt := fmt.Sprintf(`Bạn là một trợ lý thông minh. Nhiệm vụ của bạn là trích xuất thông tin đặt hàng từ tin nhắn của người dùng.
Ngữ cảnh bổ sung (Kết quả tra cứu gần nhất của người dùng):
%s
Lịch sử hội thoại:
%s
Tin nhắn mới nhất của người dùng: %q
YÊU CẦU:
Dựa vào tin nhắn mới nhất, lịch sử và ngữ cảnh bổ sung trên, trích xuất các thông tin sau và trả về dưới dạng JSON:
- customer_name (string or null)
- phone (string or null)
- address (string or null)
- books (một LIST các object, mỗi object có 'title' và 'quantity').
QUAN TRỌNG: Nếu tin nhắn mới nhất không đề cập đến tên sách cụ thể (ví dụ: "cuốn đó", "lấy cho mình cuốn đầu tiên"), hãy suy luận tên sách từ ngữ cảnh bổ sung.
JSON:`, lookupJSON, formatHistory(history), text)

	out, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var raw rawOrderFields
	if err := json.Unmarshal([]byte(stripCodeFence(out)), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse order fields JSON: %w", err)
	}

	fields := &domain.OrderFields{
		CustomerName: raw.CustomerName,
		Phone:        raw.Phone,
		Address:      raw.Address,
	}
	for _, b := range raw.Books {
		if b.Title == "" {
			continue
		}
		fields.Items = append(fields.Items, domain.OrderItem{
			Title:    b.Title,
			Quantity: ParseQuantity(string(b.Quantity)),
		})
	}
	return fields, nil
}

// ComposeReply produces the final batch answer.
func (c *Client) ComposeReply(ctx context.Context, prompt string, history []domain.Turn, lookup *domain.LookupResult) (string, error) {
	lookupJSON := "Không có"
	if lookup != nil {
		if b, err := json.Marshal(lookup); err == nil {
			lookupJSON = string(b)
		}
	}

	full := fmt.Sprintf(`Bạn là trợ lý bán sách. Dựa vào câu hỏi, lịch sử và kết quả tra cứu, hãy trả lời khách hàng một cách thân thiện và đầy đủ.
Lịch sử: %s
Câu hỏi: %q
Kết quả tra cứu: %s
Câu trả lời:`, formatHistory(history), prompt, lookupJSON)

	return c.complete(ctx, full)
}

// Chitchat produces a short friendly reply.
func (c *Client) Chitchat(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`Bạn là một trợ lý bán sách thân thiện.
Hãy trả lời tin nhắn của khách hàng một cách tự nhiên và ngắn gọn trong tối đa 2 câu.
Khách hàng nói: %q`, text)

	return c.complete(ctx, prompt)
}
