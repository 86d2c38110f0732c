// Package dispatcher executes widgets on behalf of the edit loop.
//
// Execute is the single entry point. It resolves the widget behind a
// thingy and runs it according to its variant:
//
//  1. A disabled thingy shows "No such widget" and fails without
//     running anything.
//  2. Native and completion widgets first apply the pre-dispatch flag
//     effects (suffix removal, completion list reset, line-range mode,
//     last-column stickiness). A bare EOF character on an empty first
//     line under ignore-EOF shows the exit hint instead of running the
//     widget. Native functions run with interrupt delivery held;
//     completion functions preserve the history position if it was on
//     the newest entry.
//  3. User widgets run a Lua function with the widget name prepended to
//     the arguments and tracing suppressed.
//
// Afterwards the last-bound slot is replaced, unless the target did not
// exist, and the cursor is moved off any non-leading position of a
// grapheme cluster. That last step happens on every path.
//
// The dispatcher holds no edit state beyond the bound and last-bound
// thingies and the flags of the last command. Pre- and post-dispatch
// hooks, panic recovery and metrics are optional.
package dispatcher
