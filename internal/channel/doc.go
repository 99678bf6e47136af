// Package channel turns per-channel transport credentials into a single
// identity model and namespaces conversation threads by that identity.
//
// Three channels feed the gateway:
//
//	Public  bearer token    -> AuthenticatedUser{UserID}
//	Web     session cookie  -> WebSession{SessionID}
//	Bot     chat_id param   -> BotChat{ChatID}
//
// Resolve is the only place channel-specific logic lives. Everything after it
// (thread keys, backend calls, audit) works on the Identity interface.
//
// Thread keys look like "Public/7(t1)". Identical inputs always give the same
// key, and two identities that differ in channel or scope never share a key
// for the same fragment.
package channel
