package handlers

import (
	"io"
	"net/http"
)

// indexHTML is the landing page: a minimal client for the operation endpoints.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Calculator API</title>
  <style>
    body { font-family: sans-serif; max-width: 32rem; margin: 3rem auto; }
    input, select, button { font-size: 1rem; padding: 0.3rem; }
    #result { margin-top: 1rem; font-family: monospace; white-space: pre-wrap; }
  </style>
</head>
<body>
  <h1>Calculator API</h1>
  <form id="calc">
    <input type="number" step="any" name="a" placeholder="a" required>
    <select name="op">
      <option value="add">+</option>
      <option value="subtract">&minus;</option>
      <option value="multiply">&times;</option>
      <option value="divide">&divide;</option>
    </select>
    <input type="number" step="any" name="b" placeholder="b" required>
    <input type="text" name="username" placeholder="username (optional)">
    <button type="submit">=</button>
  </form>
  <div id="result"></div>
  <script>
    document.getElementById('calc').addEventListener('submit', async (e) => {
      e.preventDefault();
      const f = e.target;
      const body = { a: Number(f.a.value), b: Number(f.b.value) };
      if (f.username.value) body.username = f.username.value;
      const resp = await fetch('/' + f.op.value, {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify(body),
      });
      document.getElementById('result').textContent = await resp.text();
    });
  </script>
</body>
</html>
`

// Index handles GET /, serving the landing page.
func Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	io.WriteString(w, indexHTML)
}
