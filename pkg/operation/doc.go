/*
Package operation implements the single-file ClearCase operations that change
what a reconciliation pass will see next.

	+-------------+      +-------------+
	|  Operator   | ---> |  cleartool  |
	| (co/ci/...) |      |   Runner    |
	+------+------+      +-------------+
	       |
	+------+------+
	|   Session   |
	| (bookkeeping|
	|  + flags)   |
	+-------------+

🎯 Purpose:
- Check files out and in, add, remove, move, roll back and update
- Keep the session bookkeeping in step with what was done
- Leave one-shot flags for the next pass (just checked out, merge conflict)

🔄 Flow:
1. The caller hands over targets, usually taken from a change set
2. Each target runs on its own; a failure is logged and remembered
3. The remaining targets still run
4. All failures come back together as one joined error

🤝 Interfaces:
- cleartool.Runner: executes the commands
- state.Session: rename edges, add/remove requests, flags

🔍 Example:

	op, err := operation.New(operation.Options{Runner: runner, Session: session})
	err = op.Checkin(ctx, targets, "fix login redirect")
*/
package operation
