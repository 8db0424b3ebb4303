// Package chat provides conversational AI providers for the city-guide
// assistant. Providers share the Provider interface so handlers stay
// independent of the upstream vendor.
//
// The API credential is passed per call rather than at construction, because
// credentials are issued by the quota tracker at admission time:
//
//	provider := chat.NewOpenAI()
//
//	reply, err := provider.Reply(ctx, credential, "best coffee near the river?")
//	if err != nil {
//		return err
//	}
//	fmt.Println(reply.Text)
//
// Two implementations are available: OpenAI (chat completions API) and
// Google (Gemini API).
package chat
