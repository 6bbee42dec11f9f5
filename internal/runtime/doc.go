// Package runtime provides the execution context for smartpick commands.
//
// It encapsulates shared dependencies needed by actions, such as the
// repository, the loaded configuration, the session store and the logger.
package runtime
