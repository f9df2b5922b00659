package notification

func intPtr(n int) *int { return &n }

// DefaultRules returns the rule set seeded on first start: a reminder three
// days before the due date, an alert one day after it, and a payment
// confirmation for manual or event-triggered sends.
func DefaultRules() []*Rule {
	return []*Rule{
		{
			Name:          "Lembrete 3 dias antes",
			Type:          TypeDueReminder,
			DaysBeforeDue: intPtr(3),
			Enabled:       true,
			Subject:       "Lembrete: Cobrança vence em breve",
			Body: `Olá {{customerName}},

Este é um lembrete amigável de que sua cobrança vencerá em breve.

Detalhes da cobrança:
- Descrição: {{description}}
- Valor: {{amount}}
- Data de vencimento: {{dueDate}}

Para evitar atrasos, por favor efetue o pagamento até a data de vencimento.
Se você já efetuou o pagamento, pode desconsiderar este e-mail.

Atenciosamente,
Equipe de Cobrança`,
		},
		{
			Name:         "Aviso de vencimento",
			Type:         TypeOverdueAlert,
			DaysAfterDue: intPtr(1),
			Enabled:      true,
			Subject:      "URGENTE: Cobrança em atraso",
			Body: `Olá {{customerName}},

Identificamos que sua cobrança está em atraso. Por favor, regularize sua
situação o quanto antes.

Detalhes da cobrança:
- Descrição: {{description}}
- Valor: {{amount}}
- Data de vencimento: {{dueDate}}
- Dias em atraso: {{daysOverdue}}

Entre em contato conosco imediatamente se houver alguma dúvida ou
dificuldade para efetuar o pagamento.

Atenciosamente,
Equipe de Cobrança`,
		},
		{
			Name:    "Confirmação de pagamento",
			Type:    TypePaymentConfirmation,
			Enabled: true,
			Subject: "Pagamento confirmado - Obrigado!",
			Body: `Olá {{customerName}},

Confirmamos o recebimento do seu pagamento. Muito obrigado!

Detalhes da cobrança:
- Descrição: {{description}}
- Valor: {{amount}}
- Data do pagamento: {{paymentDate}}

Sua conta está em dia. Agradecemos pela pontualidade e confiança!

Atenciosamente,
Equipe Financeira`,
		},
	}
}
