/*
Package config loads the ccvcs project configuration.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	   +--------+------+------+--------+
	   |        |             |        |
	+--+---+ +--+--+      +---+--+ +---+--+
	| YAML | | HCL |      | TOML | | JSON |
	+------+ +-----+      +------+ +------+

🎯 Purpose:
- Finds the .ccvcs.* file of a project
- Parses it with the parser registered for its extension
- Applies defaults and resolves relative paths

⚙️ Settings:

	executable               cleartool binary (default "cleartool")
	timeout                  per-invocation limit (default 5m)
	status_ceiling           serialized size of one ls batch (default 1000)
	describe_ceiling         serialized size of one describe batch (default 500)
	checkout_list_threshold  candidates above which checkouts are listed instead (default 200)
	use_ucm                  tag modified files with their UCM activity
	roots                    VCS roots, each inside a loaded view (required)
	ignore                   doublestar patterns relative to the roots
	state_file               persisted session (default <first root>/.ccvcs/state.json)
	history_limit            newest versions returned by history, 0 for all

Unknown keys are rejected by every parser.

🔍 Example:

	path, err := config.Find(".")
	if err != nil {
		return err
	}
	cfg, err := config.Load(ctx, path)
*/
package config
