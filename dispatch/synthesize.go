package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/xiaot623/bookchat/domain"
	"github.com/xiaot623/bookchat/session"
	"github.com/xiaot623/bookchat/store"
)

// User-visible replies for degraded paths.
const (
	replyApologyLLM     = "Xin lỗi, đã có lỗi khi xử lý yêu cầu của bạn. Bạn vui lòng thử lại sau ạ."
	replyExtractFailed  = "Xin lỗi, tôi chưa hiểu rõ yêu cầu của bạn. Bạn vui lòng cho biết tên sách và số lượng muốn mua được không ạ?"
	replyWhichBook      = "Bạn muốn mua cuốn sách nào ạ?"
	replyCatalogDown    = "Xin lỗi, không thể kết nối tới kho sách lúc này."
	replyOrderDone      = "Đặt hàng thành công! Cảm ơn bạn đã mua sách."
	replyOrderFailed    = "Xin lỗi, đã có lỗi xảy ra khi đặt hàng. Đơn hàng chưa được ghi nhận, bạn vui lòng thử lại sau ạ."
	replyOutOfStock     = "Xin lỗi, một số sách trong đơn không còn đủ hàng nên đơn chưa được ghi nhận. Bạn vui lòng đặt lại giúp mình nhé."
	replyOrderCancelled = "Đã hủy đơn hàng. Tôi có thể giúp gì khác cho bạn không?"
	replyOrderBlocked   = "Xin lỗi, đơn hàng vượt quá giới hạn cho phép. Bạn vui lòng giảm số lượng giúp mình nhé."
	replyReconsider     = "Dạ em hiểu ạ. Không biết mình muốn giảm số lượng hay tìm một cuốn sách khác có giá tốt hơn ạ?"
)

// processBatch runs the synthesis stage for one batch: exactly one reply per
// debounce firing, regardless of batch size or errors.
func (d *Dispatcher) processBatch(sess *session.Session, batch []session.ClassifyOutcome) {
	sess.SynthMu.Lock()
	defer sess.SynthMu.Unlock()

	sess.Mu.Lock()
	sess.Busy = true
	draft := copyDraft(sess.Draft)
	lastLookup := sess.LastLookup
	history := make([]domain.Turn, len(sess.History))
	copy(history, sess.History)
	sess.Mu.Unlock()

	d.events.Append(sess.ID, domain.EventTypeBatchStart, domain.BatchStartPayload{
		BatchSize: len(batch),
	})

	prompt := combinedPrompt(batch)
	combined := combinedMessages(batch)

	reply := d.synthesize(sess.ID, batch, &draft, lastLookup, history, combined, prompt)

	// Retain the most recent successful lookup for pronoun-like references
	// in later turns.
	for _, item := range batch {
		if item.Lookup != nil && item.Lookup.Error == "" {
			lastLookup = item.Lookup
		}
	}

	// Write-back under a fresh lock acquisition; busy is cleared in all
	// cases so the session is never left permanently marked busy.
	sess.Mu.Lock()
	sess.History = append(sess.History, domain.Turn{Role: domain.RoleUser, Text: combined})
	sess.History = append(sess.History, domain.Turn{Role: domain.RoleAssistant, Text: reply})
	sess.Draft = draft
	sess.LastLookup = lastLookup
	sess.Busy = false
	sess.Mu.Unlock()

	d.events.Append(sess.ID, domain.EventTypeLLMResponse, domain.LLMResponsePayload{
		Prompt:    prompt,
		Response:  reply,
		BatchSize: len(batch),
	})

	log.Printf("DEBUG: batch processed for session %s, batch size %d", sess.ID, len(batch))
}

// synthesize routes the batch to the right handler and never returns an
// empty reply.
func (d *Dispatcher) synthesize(sessionID string, batch []session.ClassifyOutcome, draft *domain.OrderDraft, lastLookup *domain.LookupResult, history []domain.Turn, combined, prompt string) string {
	ctx := context.Background()

	// A confirming draft intercepts the whole batch as a yes/no/edit answer.
	if draft.Confirming {
		return d.handleConfirmation(ctx, sessionID, batch, draft, lastLookup, history, combined)
	}

	hasOrder := false
	hasQuery := false
	var batchLookup *domain.LookupResult
	for _, item := range batch {
		if item.Intent.IsOrderFlow() {
			hasOrder = true
		}
		if item.Intent == domain.IntentQueryBooks {
			hasQuery = true
		}
		if item.Lookup != nil && item.Lookup.Error == "" {
			batchLookup = item.Lookup
		}
	}

	switch {
	case hasOrder:
		return d.handleOrdering(ctx, sessionID, combined, draft, lastLookup, history)
	case hasQuery:
		reply, err := d.lang.ComposeReply(ctx, prompt, history, batchLookup)
		if err != nil {
			d.events.Append(sessionID, domain.EventTypeLLMError, domain.LLMErrorPayload{
				Error:  err.Error(),
				Prompt: prompt,
			})
			return replyApologyLLM
		}
		return reply
	default:
		reply, err := d.lang.Chitchat(ctx, prompt)
		if err != nil {
			d.events.Append(sessionID, domain.EventTypeLLMError, domain.LLMErrorPayload{
				Error:  err.Error(),
				Prompt: prompt,
			})
			return replyApologyLLM
		}
		return reply
	}
}

// handleOrdering merges extracted order information into the draft, resolves
// cart lines against the catalog and asks for whatever is still missing.
// When everything is present it flips the draft to confirming.
func (d *Dispatcher) handleOrdering(ctx context.Context, sessionID, text string, draft *domain.OrderDraft, lastLookup *domain.LookupResult, history []domain.Turn) string {
	fields, err := d.lang.ExtractOrderFields(ctx, text, history, lastLookup)
	if err != nil {
		d.events.Append(sessionID, domain.EventTypeLLMError, domain.LLMErrorPayload{
			Error: err.Error(),
		})
		return replyExtractFailed
	}

	if fields.CustomerName != "" {
		draft.CustomerName = fields.CustomerName
	}
	if fields.Phone != "" {
		draft.Phone = fields.Phone
	}
	if fields.Address != "" {
		draft.Address = fields.Address
	}
	mergeCart(draft, fields.Items)

	if len(draft.Cart) == 0 {
		return replyWhichBook
	}

	total := 0.0
	var cartLines []string
	for i := range draft.Cart {
		line := &draft.Cart[i]

		match, ok, err := d.catalog.LookupTitle(ctx, line.Title)
		if err != nil {
			return replyCatalogDown
		}
		if !ok {
			return fmt.Sprintf("Xin lỗi, không tìm thấy sách nào có tên giống '%s' trong kho. Bạn vui lòng kiểm tra lại chính tả nhé.", line.Title)
		}

		price, stock, err := d.catalog.GetPriceAndStock(ctx, match)
		if err != nil {
			return replyCatalogDown
		}
		if line.Quantity > stock {
			return fmt.Sprintf("Xin lỗi, cuốn '%s' chỉ còn %d cuốn, không đủ %d cuốn bạn yêu cầu.", match, stock, line.Quantity)
		}

		line.ResolvedTitle = match
		line.UnitPrice = price
		total += price * float64(line.Quantity)
		cartLines = append(cartLines, fmt.Sprintf("- %d cuốn '%s' (Đơn giá: %s VNĐ)", line.Quantity, match, formatVND(price)))
	}
	draft.TotalPrice = total
	cartSummary := strings.Join(cartLines, "\n")

	if missing := draft.MissingFields(); len(missing) > 0 {
		return fmt.Sprintf("Đơn hàng của bạn gồm:\n%s\nTổng cộng: %s VNĐ.\nVui lòng cho tôi biết %s của bạn.",
			cartSummary, formatVND(total), strings.Join(missing, " và "))
	}

	draft.Confirming = true
	return fmt.Sprintf(`Vui lòng xác nhận lại thông tin đơn hàng của bạn:
%s
- Tổng cộng: %s VNĐ
- Tên người nhận: %s
- Số điện thoại: %s
- Địa chỉ giao hàng: %s

Thông tin đã chính xác chưa ạ? (trả lời "chính xác", "sửa thông tin" hoặc "hủy")`,
		cartSummary, formatVND(total), draft.CustomerName, draft.Phone, draft.Address)
}

// handleConfirmation interprets the batch as the answer to a pending order
// confirmation: confirm commits, edit drops back to drafting, anything else
// cancels.
func (d *Dispatcher) handleConfirmation(ctx context.Context, sessionID string, batch []session.ClassifyOutcome, draft *domain.OrderDraft, lastLookup *domain.LookupResult, history []domain.Turn, combined string) string {
	confirmed := false
	edit := false
	reconsider := false
	for _, item := range batch {
		switch item.Intent {
		case domain.IntentConfirmOrder:
			confirmed = true
		case domain.IntentEditOrder:
			edit = true
		case domain.IntentReconsiderOrder:
			reconsider = true
		}
	}

	switch {
	case confirmed:
		return d.commitOrder(ctx, sessionID, draft)
	case edit:
		draft.Confirming = false
		return d.handleOrdering(ctx, sessionID, combined, draft, lastLookup, history)
	case reconsider:
		draft.Confirming = false
		return replyReconsider
	default:
		draft.Reset()
		return replyOrderCancelled
	}
}

// commitOrder runs the policy gate and the all-or-nothing catalog commit.
// Any commit failure resets the draft rather than leaving partial state
// referenced as confirmed.
func (d *Dispatcher) commitOrder(ctx context.Context, sessionID string, draft *domain.OrderDraft) string {
	if d.policy != nil {
		decision, err := d.policy.Evaluate(ctx, policyInput(draft))
		if err != nil {
			log.Printf("WARN: order policy evaluation failed for session %s: %v", sessionID, err)
		} else if decision != "allow" {
			// Draft is kept so the user can adjust and re-confirm.
			return replyOrderBlocked
		}
	}

	orderID, err := d.catalog.CommitOrder(ctx, draft.CustomerName, draft.Phone, draft.Address, draft.Cart)
	if err != nil {
		d.events.Append(sessionID, domain.EventTypeOrderCommitFailed, domain.OrderCommitFailedPayload{
			Error: err.Error(),
		})
		draft.Reset()
		if errors.Is(err, store.ErrInsufficientStock) {
			return replyOutOfStock
		}
		return replyOrderFailed
	}

	d.events.Append(sessionID, domain.EventTypeOrderCommitted, domain.OrderCommittedPayload{
		OrderID:    orderID,
		Lines:      len(draft.Cart),
		TotalPrice: draft.TotalPrice,
	})
	draft.Reset()
	return replyOrderDone
}

// policyInput builds the rego input document for the order policy.
func policyInput(draft *domain.OrderDraft) map[string]interface{} {
	lines := make([]map[string]interface{}, 0, len(draft.Cart))
	for _, l := range draft.Cart {
		lines = append(lines, map[string]interface{}{
			"title":    l.ResolvedTitle,
			"quantity": l.Quantity,
		})
	}
	return map[string]interface{}{
		"customer_name": draft.CustomerName,
		"phone":         draft.Phone,
		"address":       draft.Address,
		"lines":         lines,
	}
}

// mergeCart folds newly requested items into the cart: a title already in
// the cart has its quantity updated, new titles are appended.
func mergeCart(draft *domain.OrderDraft, items []domain.OrderItem) {
	for _, item := range items {
		if item.Title == "" {
			continue
		}
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		found := false
		for i := range draft.Cart {
			if strings.Contains(strings.ToLower(draft.Cart[i].Title), strings.ToLower(item.Title)) ||
				strings.Contains(strings.ToLower(item.Title), strings.ToLower(draft.Cart[i].Title)) {
				draft.Cart[i].Quantity = qty
				draft.Cart[i].ResolvedTitle = ""
				found = true
				break
			}
		}
		if !found {
			draft.Cart = append(draft.Cart, domain.CartLine{Title: item.Title, Quantity: qty})
		}
	}
}

// copyDraft deep-copies an order draft, including the cart slice.
func copyDraft(d domain.OrderDraft) domain.OrderDraft {
	out := d
	out.Cart = make([]domain.CartLine, len(d.Cart))
	copy(out.Cart, d.Cart)
	return out
}

// combinedPrompt renders the batch for the final model call.
func combinedPrompt(batch []session.ClassifyOutcome) string {
	parts := make([]string, 0, len(batch))
	for _, item := range batch {
		p := fmt.Sprintf("User: %s\nIntent: %s", item.Message, item.Intent)
		if item.Lookup != nil {
			switch {
			case item.Lookup.Error != "":
				p += "\nSQL result: error: " + item.Lookup.Error
			case item.Lookup.Message != "":
				p += "\nSQL result: " + item.Lookup.Message
			default:
				p += fmt.Sprintf("\nSQL result: %d books", len(item.Lookup.Books))
			}
		}
		parts = append(parts, p)
	}
	return strings.TrimSpace(strings.Join(parts, "\n\n---\n\n"))
}

// combinedMessages joins the batch's raw messages into the synthetic user
// turn appended to the conversation log.
func combinedMessages(batch []session.ClassifyOutcome) string {
	msgs := make([]string, 0, len(batch))
	for _, item := range batch {
		msgs = append(msgs, item.Message)
	}
	return strings.TrimSpace(strings.Join(msgs, "\n"))
}

// formatVND renders a price with thousands separators, matching the
// original receipt format.
func formatVND(v float64) string {
	n := int64(v + 0.5)
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
