// Package toolloader resolves registry tool references for chat
// conversations. A reference names a tool inside an npm package
// (pkg@version/tool); the loader looks the schema up in storage, falls back
// to live executor extraction when the stored schema is missing, and caches
// resolved tools per conversation so repeated turns skip the lookup.
// Conversation messages themselves live in the database; only resolved
// schemas are held in process.
package toolloader
