// Package render is the retained scene graph the simulation draws into.
//
// A [Scene] holds [Node] values, each referencing a shared [Mesh] and its
// own [Material]. Nodes are addressed by a stable [NodeHandle]. Meshes expose
// their raw position and triangle index buffers through [Mesh.Data] so that
// collision shapes can be derived from them.
//
// Rasterization is not done here: the terminal view in package viz and the
// websocket bridge both read node transforms once per frame.
package render
