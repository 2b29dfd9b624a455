// Package flatpose renders fixed-pose Minecraft-style avatars by replaying
// pre-baked coordinate atlases against a skin texture.
//
// A one-time offline bake rasterizes the 3D player model into atlases whose
// pixels store, per output position, the skin texel to sample and a depth
// rank. At request time the renderer only has to sample, modulate, sort and
// paint — no 3D pipeline runs per request.
//
// The module is organized leaves-first:
//
//   - uv: the per-pixel codec and the Atlas type (decode once, apply many)
//   - parts: the Repository that loads and indexes named atlases
//   - render: the per-request Entry and the compositor
//   - skin: skin texture sanitization (legacy upgrade, alpha strip)
//   - ears: an optional extension provider for cosmetic extra parts
//
// A typical setup builds one Repository at startup and shares it, read-only,
// across all requests:
//
//	root := os.DirFS("parts")
//	repo, err := parts.New(root)
//	...
//	entry, err := render.NewEntry(skinImg, slim, layers)
//	out, err := entry.Render(repo)
package flatpose
