/*
Package config loads smartcopy settings from an optional file.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   HCL    | |   JSON   |
	|  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Retry budget and delay
- Hash algorithm and symlink policy
- Exclude patterns
- Monitor sampling interval and progress mode

🔄 Flow:
1. Start from Default()
2. Pick a parser by file extension
3. Overlay the file's values
4. Validate

🔍 Example:

	cfg, err := config.Load(ctx, ".smartcopy.yaml")
	if err != nil {
		return err
	}
	w, err := walker.New(src, cfg.WalkerOptions())
*/
package config
