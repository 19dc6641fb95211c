package email

import (
	"fmt"
	"strings"

	"github.com/hybrasil/storefront/internal/domain/order"
)

func buildOrderBody(o order.Order) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(fmt.Sprintf("<h2>Pedido %s</h2>", o.ID))
	b.WriteString(fmt.Sprintf("<p>Cliente: %s (%s)</p>", o.UserID, o.UserEmail))
	b.WriteString("<table border=\"1\" cellpadding=\"6\"><tr><th>Item</th><th>Qtd</th><th>Preço</th></tr>")
	for _, it := range o.Items {
		b.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%d</td><td>R$ %.2f</td></tr>", it.Name, it.Quantity, it.Price))
	}
	b.WriteString("</table>")
	b.WriteString(fmt.Sprintf("<p><strong>Total: R$ %.2f</strong></p>", o.Total))
	b.WriteString("<p>O comprovante de pagamento está anexado ao pedido no painel.</p>")
	b.WriteString("</body></html>")
	return b.String()
}
